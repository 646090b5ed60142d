package application

import (
	"strings"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

// fallbackWIPMarkers are matched against the lowercased description of a
// public API entry.
var fallbackWIPMarkers = []string{"wip", "under development", "todo"}

// readmeWIPKeywords are matched against the lowercased README text during a
// backend refresh.
var readmeWIPKeywords = []string{
	"under development",
	"work in progress",
	"wip",
	"coming soon",
	"in development",
	"todo",
	"not complete",
	"incomplete",
	"under construction",
	"beta",
	"experimental",
	"draft",
}

// IsFallbackWIP reports whether a public API entry carries a work-in-progress
// signal: a marker substring in its description or a topic equal to "wip".
func IsFallbackWIP(description string, topics []string) bool {
	desc := strings.ToLower(description)
	for _, marker := range fallbackWIPMarkers {
		if strings.Contains(desc, marker) {
			return true
		}
	}

	for _, topic := range topics {
		if strings.EqualFold(strings.TrimSpace(topic), "wip") {
			return true
		}
	}

	return false
}

// StatusFromReadme classifies a repository from its README text. A missing
// README counts as under development.
func StatusFromReadme(text string) model.ProjectStatus {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return model.ProjectStatusUnderDev
	}

	for _, keyword := range readmeWIPKeywords {
		if strings.Contains(text, keyword) {
			return model.ProjectStatusUnderDev
		}
	}

	return model.ProjectStatusCompleted
}
