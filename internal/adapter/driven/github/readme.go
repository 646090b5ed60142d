package github

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	readmeRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	tagStripper    = bluemonday.StrictPolicy()
)

// readmeText reduces README markdown to lowercase plain text so keyword scans
// do not match inside link targets, image paths, or HTML attributes.
func readmeText(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	var buf bytes.Buffer
	rendered := markdown
	if err := readmeRenderer.Convert([]byte(markdown), &buf); err == nil {
		rendered = buf.String()
	}

	text := html.UnescapeString(tagStripper.Sanitize(rendered))
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
