package model

// ProjectStatus represents the development state of a project.
type ProjectStatus string

const (
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusUnderDev  ProjectStatus = "under dev"
)

// Provenance identifies which source produced the displayed feed.
type Provenance string

const (
	ProvenanceNone     Provenance = ""
	ProvenanceCache    Provenance = "cache"    // Backend served its cache (fresh or stale).
	ProvenanceAPI      Provenance = "api"      // Backend fetched live from GitHub.
	ProvenanceFallback Provenance = "fallback" // Backend unreachable; public API used directly.
)

// BackendSource is the "source" field reported by the caching backend.
type BackendSource string

const (
	BackendSourceCache      BackendSource = "cache"
	BackendSourceCacheStale BackendSource = "cache_stale"
	BackendSourceLive       BackendSource = "live"
)

// Provenance classifies a backend-reported source. Both cache variants map to
// ProvenanceCache; anything else, including an absent source, maps to ProvenanceAPI.
func (s BackendSource) Provenance() Provenance {
	switch s {
	case BackendSourceCache, BackendSourceCacheStale:
		return ProvenanceCache
	default:
		return ProvenanceAPI
	}
}
