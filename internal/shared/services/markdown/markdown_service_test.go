package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	svc := NewMarkdownService()

	html, err := svc.ToHTML("# Maintenance\n\nThe server restarts at **noon**.")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>noon</strong>")
}

func TestSanitizeStripsScripts(t *testing.T) {
	svc := NewMarkdownService()

	clean := svc.Sanitize(`<p>ok</p><script>alert("x")</script><img src=x onerror=alert(1)>`)
	assert.Contains(t, clean, "<p>ok</p>")
	assert.NotContains(t, clean, "<script>")
	assert.NotContains(t, clean, "onerror")
}

func TestSanitizeKeepsTables(t *testing.T) {
	svc := NewMarkdownService()

	clean := svc.Sanitize(`<table><tr><td>cell</td></tr></table>`)
	assert.Contains(t, clean, "<td>cell</td>")
}

func TestToHTMLSanitized(t *testing.T) {
	svc := NewMarkdownService()

	html, err := svc.ToHTMLSanitized("hello <script>alert(1)</script> world")
	require.NoError(t, err)
	assert.Contains(t, html, "hello")
	assert.NotContains(t, html, "<script>")
}
