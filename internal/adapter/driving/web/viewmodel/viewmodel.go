// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// ProjectCardViewModel holds presentation-ready data for one project row.
type ProjectCardViewModel struct {
	ID       int64
	Title    string
	Category string
	// DescriptionHTML is sanitized inline HTML.
	DescriptionHTML string
	Year            string
	URL             string
	IsUnderDev      bool
	Topics          []string // At most three.
}

// BadgeViewModel describes the provenance indicator above the list.
type BadgeViewModel struct {
	Label string
	Class string // badge-cache, badge-live or badge-fallback
}

// ProjectsSectionViewModel holds everything the projects section renders.
// Exactly one of Loading, Failed, or the project list is shown.
type ProjectsSectionViewModel struct {
	Loading    bool
	Failed     bool
	Reason     string
	Badge      *BadgeViewModel
	Projects   []ProjectCardViewModel
	ProfileURL string
	ProfileTag string // "github.com/<user>"
	// RefreshSeconds asks the page to reload itself while a cycle is running.
	// Zero disables the reload.
	RefreshSeconds int
}
