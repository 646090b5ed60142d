package model

import "time"

// FetchPhase is the discriminator of FetchState.
type FetchPhase string

const (
	FetchPhaseIdle    FetchPhase = "idle"
	FetchPhaseLoading FetchPhase = "loading"
	FetchPhaseSuccess FetchPhase = "success"
	FetchPhaseFailed  FetchPhase = "failed"
)

// FetchState is the resolver's view of the feed. It is a tagged union over
// FetchPhase; build values with the constructors below so that each phase only
// carries the fields that belong to it.
type FetchState struct {
	Phase      FetchPhase
	Projects   []Project
	Provenance Provenance
	Reason     string
	Generation uint64
	UpdatedAt  time.Time
}

// IdleState is the state before any cycle has started.
func IdleState() FetchState {
	return FetchState{Phase: FetchPhaseIdle}
}

// LoadingState is the state of an in-flight cycle. provenance is ProvenanceNone
// while the primary source is being tried and ProvenanceFallback once the cycle
// has moved to the public API.
func LoadingState(generation uint64, provenance Provenance, at time.Time) FetchState {
	if provenance != ProvenanceFallback {
		provenance = ProvenanceNone
	}
	return FetchState{
		Phase:      FetchPhaseLoading,
		Provenance: provenance,
		Generation: generation,
		UpdatedAt:  at,
	}
}

// SuccessState holds the projects and provenance of a completed cycle.
func SuccessState(generation uint64, feed Feed, at time.Time) FetchState {
	projects := feed.Projects
	if projects == nil {
		projects = []Project{}
	}
	return FetchState{
		Phase:      FetchPhaseSuccess,
		Projects:   projects,
		Provenance: feed.Provenance,
		Generation: generation,
		UpdatedAt:  at,
	}
}

// FailedState holds the human-readable reason both sources failed.
func FailedState(generation uint64, reason string, at time.Time) FetchState {
	return FetchState{
		Phase:      FetchPhaseFailed,
		Projects:   []Project{},
		Reason:     reason,
		Generation: generation,
		UpdatedAt:  at,
	}
}

// IsTerminal reports whether the state is the outcome of a finished cycle.
func (s FetchState) IsTerminal() bool {
	return s.Phase == FetchPhaseSuccess || s.Phase == FetchPhaseFailed
}
