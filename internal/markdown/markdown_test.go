package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render([]byte("# Title\n\n![Photo](img/photo.jpg)\n"), DefaultOptions)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<h1 id="title">Title</h1>`)
	assert.Contains(t, string(out), `<img src="img/photo.jpg" alt="Photo">`)
}

func TestRender_RawHTML(t *testing.T) {
	src := []byte("<img src=\"img/a.png\" width=\"10\">\n")

	out, err := Render(src, DefaultOptions)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<img src="img/a.png" width="10">`)

	safe, err := Render(src, Options{})
	require.NoError(t, err)
	assert.NotContains(t, string(safe), `<img`)
}

func TestRender_GFMTable(t *testing.T) {
	out, err := Render([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"), DefaultOptions)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<table>")
}

func TestFirstHeading(t *testing.T) {
	assert.Equal(t, "Hello World", FirstHeading([]byte("intro\n\n## Sub\n\n# Hello *World*\n")))
	assert.Empty(t, FirstHeading([]byte("no heading")))
}
