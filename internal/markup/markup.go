// Package markup finds the reference-bearing attributes of a rendered page,
// selected by (element, attribute) pairs, and patches them in place.
//
// Pages are tokenized, never rebuilt: Render copies every byte of the input except
// the start tags whose attributes were changed, so doctypes, prologs, comments,
// table fragments and untouched attribute values survive exactly as written.
package markup

import (
	stderrors "errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
)

// Selector names an element kind and the attribute on it that carries a reference.
// An Element of "*" matches every element.
type Selector struct {
	Element   string `yaml:"element"`
	Attribute string `yaml:"attribute"`
}

// DefaultSelectors selects image sources.
var DefaultSelectors = []Selector{{Element: "img", Attribute: "src"}}

// Document is a tokenized page.
type Document struct {
	src  string
	tags []*tag
}

// tag is one start tag, located by its byte range in the source.
type tag struct {
	start, end int
	name       string
	attrs      []*attr
	added      []*attr
	dirty      bool
}

// attr is one attribute of a start tag. start and end are relative to the tag and
// cover the key through the end of the value.
type attr struct {
	key        string
	raw        string
	val        string
	start, end int
	changed    bool
}

// Parse tokenizes page markup.
func Parse(content string) (*Document, error) {
	doc := &Document{src: content}
	z := html.NewTokenizer(strings.NewReader(content))
	off := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !stderrors.Is(err, io.EOF) {
				return nil, errors.WrapError(err, errors.CategoryMarkup, "failed to tokenize HTML").Build()
			}
			break
		}
		n := len(z.Raw())
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			raw := content[off : off+n]
			doc.tags = append(doc.tags, &tag{
				start: off,
				end:   off + n,
				name:  string(name),
				attrs: lexAttrs(raw),
			})
		}
		off += n
	}
	return doc, nil
}

// Ref is one matched attribute occurrence. Refs share the document and are not
// safe for concurrent mutation.
type Ref struct {
	tag *tag
	sel Selector
}

// Element returns the element name.
func (r *Ref) Element() string { return r.tag.name }

// Attribute returns the selected attribute name.
func (r *Ref) Attribute() string { return r.sel.Attribute }

// Value returns the current attribute value.
func (r *Ref) Value() string {
	v, _ := r.tag.get(r.sel.Attribute)
	return v
}

// Set replaces the selected attribute's value.
func (r *Ref) Set(value string) { r.tag.set(r.sel.Attribute, value) }

// SetAttr sets another attribute on the same element, adding it when absent.
func (r *Ref) SetAttr(key, value string) { r.tag.set(key, value) }

// Attr returns any attribute of the element.
func (r *Ref) Attr(key string) (string, bool) { return r.tag.get(key) }

// Visit calls fn for every element attribute matching one of selectors, in document
// order. An element matching several selectors is visited once per selector. The
// first error from fn stops the walk.
func (d *Document) Visit(selectors []Selector, fn func(*Ref) error) error {
	for _, t := range d.tags {
		for _, sel := range selectors {
			if !sel.matches(t) {
				continue
			}
			if err := fn(&Ref{tag: t, sel: sel}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Refs collects every match of selectors.
func (d *Document) Refs(selectors []Selector) []*Ref {
	var refs []*Ref
	for _, t := range d.tags {
		for _, sel := range selectors {
			if sel.matches(t) {
				refs = append(refs, &Ref{tag: t, sel: sel})
			}
		}
	}
	return refs
}

// Render returns the page with changed start tags patched in.
func (d *Document) Render() (string, error) {
	var b strings.Builder
	b.Grow(len(d.src))
	pos := 0
	for _, t := range d.tags {
		if !t.dirty {
			continue
		}
		b.WriteString(d.src[pos:t.start])
		t.render(&b, d.src[t.start:t.end])
		pos = t.end
	}
	b.WriteString(d.src[pos:])
	return b.String(), nil
}

func (s Selector) matches(t *tag) bool {
	if s.Element != "*" && !strings.EqualFold(t.name, s.Element) {
		return false
	}
	_, ok := t.get(s.Attribute)
	return ok
}

func (t *tag) find(key string) *attr {
	for _, a := range t.attrs {
		if strings.EqualFold(a.key, key) {
			return a
		}
	}
	for _, a := range t.added {
		if strings.EqualFold(a.key, key) {
			return a
		}
	}
	return nil
}

func (t *tag) get(key string) (string, bool) {
	if a := t.find(key); a != nil {
		return a.val, true
	}
	return "", false
}

func (t *tag) set(key, value string) {
	a := t.find(key)
	switch {
	case a == nil:
		t.added = append(t.added, &attr{key: key, val: value})
	case a.val == value:
		return
	default:
		a.val = value
		a.changed = true
	}
	t.dirty = true
}

// render writes raw with changed attributes replaced and added ones appended
// before the closing bracket.
func (t *tag) render(b *strings.Builder, raw string) {
	p := 0
	for _, a := range t.attrs {
		if !a.changed {
			continue
		}
		b.WriteString(raw[p:a.start])
		writeAttr(b, a.raw, a.val)
		p = a.end
	}

	ins := len(raw) - 1
	if strings.HasSuffix(raw, "/>") {
		ins = len(raw) - 2
	}
	ins = max(ins, p)
	b.WriteString(raw[p:ins])
	for _, a := range t.added {
		b.WriteByte(' ')
		writeAttr(b, a.key, a.val)
	}
	b.WriteString(raw[ins:])
}

func writeAttr(b *strings.Builder, key, val string) {
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(val))
	b.WriteByte('"')
}

// lexAttrs locates the attributes of a raw start tag, following the tokenizer's
// attribute rules so the result lines up with what browsers see.
func lexAttrs(raw string) []*attr {
	n := len(raw)
	if strings.HasSuffix(raw, ">") {
		n--
	}
	i := 1
	for i < n && !isSpace(raw[i]) && raw[i] != '/' {
		i++
	}

	var attrs []*attr
	for i < n {
		for i < n && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= n {
			break
		}

		ks := i
		if raw[i] == '=' {
			i++
		}
		for i < n && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '=' {
			i++
		}
		a := &attr{raw: raw[ks:i], key: strings.ToLower(raw[ks:i]), start: ks}

		j := i
		for j < n && isSpace(raw[j]) {
			j++
		}
		if j < n && raw[j] == '=' {
			j++
			for j < n && isSpace(raw[j]) {
				j++
			}
			switch {
			case j < n && (raw[j] == '"' || raw[j] == '\''):
				q := raw[j]
				vs := j + 1
				ve := strings.IndexByte(raw[vs:n], q)
				if ve < 0 {
					a.val = html.UnescapeString(raw[vs:n])
					j = n
				} else {
					a.val = html.UnescapeString(raw[vs : vs+ve])
					j = vs + ve + 1
				}
			default:
				vs := j
				for j < n && !isSpace(raw[j]) {
					j++
				}
				a.val = html.UnescapeString(raw[vs:j])
			}
			i = j
		}
		a.end = i
		attrs = append(attrs, a)
	}
	return attrs
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f'
}
