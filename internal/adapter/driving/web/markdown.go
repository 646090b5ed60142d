package web

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer      goldmark.Markdown
	inlineSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	// Descriptions are rendered on a single line, so block elements are
	// stripped and only inline formatting survives.
	inlineSanitizer = bluemonday.NewPolicy()
	inlineSanitizer.AllowElements("code", "em", "strong", "del")
	inlineSanitizer.AllowStandardURLs()
	inlineSanitizer.AllowAttrs("href").OnElements("a")
	inlineSanitizer.RequireNoFollowOnLinks(true)
	inlineSanitizer.AddTargetBlankToFullyQualifiedLinks(true)
}

// RenderDescription converts a repository description to sanitized inline
// HTML. Returns empty string for blank input.
func RenderDescription(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return inlineSanitizer.Sanitize(src)
	}

	return strings.TrimSpace(inlineSanitizer.Sanitize(buf.String()))
}
