package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

const (
	// MaxFallbackProjects caps the number of entries kept from the public API.
	MaxFallbackProjects = 12

	defaultCategory = "Development"
	untitled        = "Untitled"
)

// timestampLayouts are tried in order when extracting a year from a raw
// timestamp string.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// mapBackendRepos maps the primary source's entries verbatim. The ID of each
// project is its index in the payload.
func mapBackendRepos(repos []model.BackendRepo, now time.Time) []model.Project {
	projects := make([]model.Project, 0, len(repos))
	for i, repo := range repos {
		status := model.ProjectStatusCompleted
		if repo.Status == model.ProjectStatusUnderDev {
			status = model.ProjectStatusUnderDev
		}

		projects = append(projects, model.Project{
			ID:          int64(i),
			Title:       titleFromName(repo.Name),
			Category:    categoryFromLanguage(repo.Language),
			Description: repo.Description,
			Year:        yearFromStrings(now, repo.UpdatedAt, repo.CreatedAt),
			URL:         repo.HTMLURL,
			Status:      status,
			Topics:      copyTopics(repo.Topics),
		})
	}
	return projects
}

// mapFallbackRepos drops forks, keeps the first MaxFallbackProjects entries in
// source order, and derives status from the work-in-progress heuristic.
func mapFallbackRepos(repos []model.GitHubRepo, now time.Time) []model.Project {
	projects := make([]model.Project, 0, min(len(repos), MaxFallbackProjects))
	for _, repo := range repos {
		if repo.Fork {
			continue
		}
		if len(projects) == MaxFallbackProjects {
			break
		}

		status := model.ProjectStatusCompleted
		if IsFallbackWIP(repo.Description, repo.Topics) {
			status = model.ProjectStatusUnderDev
		}

		projects = append(projects, model.Project{
			ID:          repo.ID,
			Title:       titleFromName(repo.Name),
			Category:    categoryFromLanguage(repo.Language),
			Description: repo.Description,
			Year:        yearFromTimes(now, repo.UpdatedAt, repo.CreatedAt),
			URL:         repo.HTMLURL,
			Status:      status,
			Topics:      copyTopics(repo.Topics),
		})
	}
	return projects
}

// titleFromName replaces every hyphen in a repository name with a space.
func titleFromName(name string) string {
	if strings.TrimSpace(name) == "" {
		return untitled
	}
	return strings.ReplaceAll(name, "-", " ")
}

func categoryFromLanguage(language string) string {
	if language == "" {
		return defaultCategory
	}
	return language
}

// yearFromStrings returns the four-digit year of the first parsable
// timestamp, or the year of now when none parses.
func yearFromStrings(now time.Time, timestamps ...string) string {
	for _, ts := range timestamps {
		ts = strings.TrimSpace(ts)
		if ts == "" {
			continue
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, ts); err == nil {
				return formatYear(t)
			}
		}
	}
	return formatYear(now)
}

// yearFromTimes returns the four-digit year of the first non-zero time, or the
// year of now.
func yearFromTimes(now time.Time, times ...time.Time) string {
	for _, t := range times {
		if !t.IsZero() {
			return formatYear(t)
		}
	}
	return formatYear(now)
}

func formatYear(t time.Time) string {
	return fmt.Sprintf("%04d", t.UTC().Year())
}

func copyTopics(topics []string) []string {
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}
