package site

import (
	"bytes"
	"html/template"
	"os"
)

const defaultLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
</head>
<body>
<main>
{{ .Content }}
</main>
</body>
</html>
`

// pageData is what layouts are executed with.
type pageData struct {
	Title   string
	Path    string
	Content template.HTML
	Params  map[string]any
}

// loadLayout parses the layout file, or the built-in layout when path is empty.
func loadLayout(path string) (*template.Template, error) {
	src := defaultLayout
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // configured layout path
		if err != nil {
			return nil, err
		}
		src = string(data)
	}
	return template.New("layout").Parse(src)
}

func execute(tmpl *template.Template, data pageData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
