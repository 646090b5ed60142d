package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

func sampleFeed() model.Feed {
	return model.Feed{
		Provenance: model.ProvenanceFallback,
		Projects: []model.Project{
			{
				ID:       42,
				Title:    "repo feed",
				Category: "Go",
				Year:     "2025",
				URL:      "https://github.com/octocat/repo-feed",
				Status:   model.ProjectStatusUnderDev,
				Topics:   []string{"go", "wip"},
			},
		},
	}
}

func TestWriteFeedTable(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, writeFeedTable(&buf, sampleFeed()))

	out := buf.String()
	assert.Contains(t, out, "repo feed")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "under dev")
	assert.Contains(t, out, "go, wip")
	assert.Contains(t, out, "1 projects from public GitHub API")
}

func TestWriteFeedJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, writeFeedJSON(&buf, sampleFeed()))

	var got feedOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, model.ProvenanceFallback, got.Provenance)
	require.Len(t, got.Projects, 1)
	assert.Equal(t, int64(42), got.Projects[0].ID)
	assert.Equal(t, "under dev", got.Projects[0].Status)
	assert.Equal(t, []string{"go", "wip"}, got.Projects[0].Topics)
}

func TestWriteFeedJSON_EmptyFeedEncodesEmptyArray(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, writeFeedJSON(&buf, model.Feed{Provenance: model.ProvenanceCache}))

	assert.Contains(t, buf.String(), `"projects": []`)
}

func TestProvenanceLabel(t *testing.T) {
	assert.Equal(t, "backend cache", provenanceLabel(model.ProvenanceCache))
	assert.Equal(t, "backend live fetch", provenanceLabel(model.ProvenanceAPI))
	assert.Equal(t, "public GitHub API", provenanceLabel(model.ProvenanceFallback))
	assert.Equal(t, "unknown source", provenanceLabel(model.ProvenanceNone))
}
