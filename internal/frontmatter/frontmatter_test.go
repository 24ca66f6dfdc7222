package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_CRLF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\ntitle: x\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\r\n"), fm)
	require.Equal(t, []byte("body\r\n"), body)
}

func TestSplit_EmptyAndEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\nbody"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("body"), body)

	fm, body, had, err = Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: x\n"), fm)
	require.Empty(t, body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestParse(t *testing.T) {
	meta, body, err := Parse([]byte("---\ntitle: Hello\ndraft: true\ntags: [a, b]\n---\n# Body\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", meta.Title)
	assert.True(t, meta.Draft)
	assert.Equal(t, []any{"a", "b"}, meta.Params["tags"])
	assert.Equal(t, []byte("# Body\n"), body)

	meta, body, err = Parse([]byte("plain"))
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
	assert.Equal(t, []byte("plain"), body)

	_, _, err = Parse([]byte("---\ntitle: [unclosed\n---\n"))
	require.Error(t, err)
}

func TestParseYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("title: x\nweight: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", fields["title"])
	assert.Equal(t, 3, fields["weight"])

	fields, err = ParseYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, fields)
}
