package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

func TestToProjectsSectionViewModel_Loading(t *testing.T) {
	for _, state := range []model.FetchState{
		model.IdleState(),
		model.LoadingState(1, model.ProvenanceFallback, time.Now()),
	} {
		section := toProjectsSectionViewModel(state, "octocat")
		assert.True(t, section.Loading)
		assert.False(t, section.Failed)
		assert.Nil(t, section.Badge)
		assert.Equal(t, loadingRefresh, section.RefreshSeconds)
	}
}

func TestToProjectsSectionViewModel_Failed(t *testing.T) {
	section := toProjectsSectionViewModel(model.FailedState(2, "System Offline: Check connection", time.Now()), "octocat")
	assert.True(t, section.Failed)
	assert.Equal(t, "System Offline: Check connection", section.Reason)
	assert.Nil(t, section.Badge)
	assert.Zero(t, section.RefreshSeconds)
	assert.Equal(t, "https://github.com/octocat", section.ProfileURL)
}

func TestToProjectsSectionViewModel_Badges(t *testing.T) {
	tests := []struct {
		provenance model.Provenance
		class      string
	}{
		{provenance: model.ProvenanceCache, class: "badge-cache"},
		{provenance: model.ProvenanceAPI, class: "badge-live"},
		{provenance: model.ProvenanceFallback, class: "badge-fallback"},
	}

	for _, tc := range tests {
		state := model.SuccessState(1, model.Feed{Provenance: tc.provenance}, time.Now())
		section := toProjectsSectionViewModel(state, "octocat")
		require.NotNil(t, section.Badge)
		assert.Equal(t, tc.class, section.Badge.Class)
	}
}

func TestToProjectCardViewModel(t *testing.T) {
	card := toProjectCardViewModel(model.Project{
		ID:       7,
		Title:    "my cool project",
		Category: "Go",
		Year:     "2023",
		URL:      "https://github.com/octocat/my-cool-project",
		Status:   model.ProjectStatusUnderDev,
		Topics:   []string{"a", "b", "c", "d"},
	})

	assert.True(t, card.IsUnderDev)
	assert.Equal(t, []string{"a", "b", "c"}, card.Topics)
	assert.Equal(t, "No description available.", card.DescriptionHTML)
}
