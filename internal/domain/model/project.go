package model

// Project is the normalized repository summary rendered in the projects section.
// Both the backend and the public API fallback are mapped into this shape.
type Project struct {
	ID          int64
	Title       string
	Category    string
	Description string
	Year        string // Always four digits.
	URL         string
	Status      ProjectStatus
	Topics      []string
}

// IsUnderDev reports whether the project carries a work-in-progress signal.
func (p Project) IsUnderDev() bool {
	return p.Status == ProjectStatusUnderDev
}

// Feed is the outcome of one successful resolver cycle.
type Feed struct {
	Projects   []Project
	Provenance Provenance
}
