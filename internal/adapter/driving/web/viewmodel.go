package web

import (
	vm "github.com/ericfisherdev/repofeed/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

const (
	maxTopicsShown = 3
	loadingRefresh = 2
)

// toProjectsSectionViewModel converts the resolver state into the projects
// section view model.
func toProjectsSectionViewModel(state model.FetchState, username string) vm.ProjectsSectionViewModel {
	section := vm.ProjectsSectionViewModel{
		ProfileURL: "https://github.com/" + username,
		ProfileTag: "github.com/" + username,
		Projects:   []vm.ProjectCardViewModel{},
	}

	switch state.Phase {
	case model.FetchPhaseIdle, model.FetchPhaseLoading:
		section.Loading = true
		section.RefreshSeconds = loadingRefresh
	case model.FetchPhaseFailed:
		section.Failed = true
		section.Reason = state.Reason
	case model.FetchPhaseSuccess:
		section.Badge = toBadgeViewModel(state.Provenance)
		for _, p := range state.Projects {
			section.Projects = append(section.Projects, toProjectCardViewModel(p))
		}
	}

	return section
}

func toBadgeViewModel(p model.Provenance) *vm.BadgeViewModel {
	switch p {
	case model.ProvenanceFallback:
		return &vm.BadgeViewModel{Label: "Backend Offline • Private Cloud Unreachable", Class: "badge-fallback"}
	case model.ProvenanceCache:
		return &vm.BadgeViewModel{Label: "System Online • Cached Data", Class: "badge-cache"}
	default:
		return &vm.BadgeViewModel{Label: "System Online • Live Connection", Class: "badge-live"}
	}
}

func toProjectCardViewModel(p model.Project) vm.ProjectCardViewModel {
	topics := p.Topics
	if len(topics) > maxTopicsShown {
		topics = topics[:maxTopicsShown]
	}
	if topics == nil {
		topics = []string{}
	}

	description := RenderDescription(p.Description)
	if description == "" {
		description = "No description available."
	}

	return vm.ProjectCardViewModel{
		ID:              p.ID,
		Title:           p.Title,
		Category:        p.Category,
		DescriptionHTML: description,
		Year:            p.Year,
		URL:             p.URL,
		IsUnderDev:      p.IsUnderDev(),
		Topics:          topics,
	}
}
