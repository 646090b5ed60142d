package driven

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by driven adapters.
var (
	// ErrSourceUnavailable indicates a feed source could not be reached or
	// answered with a non-OK status.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedPayload indicates a feed source answered with a body that
	// does not match its expected shape.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrNoRepositories indicates neither GitHub nor the snapshot could supply
	// any repositories.
	ErrNoRepositories = errors.New("no repositories available")

	// ErrIgnoredRepoNotFound indicates the name is not on the ignore list.
	ErrIgnoredRepoNotFound = errors.New("ignored repository not found")
)

// SourceError carries the user-facing message of a failed feed source along
// with the category sentinel (ErrSourceUnavailable or ErrMalformedPayload).
type SourceError struct {
	Source  string
	Message string
	Kind    error
	Err     error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// Unwrap exposes both the category sentinel and the underlying cause.
func (e *SourceError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
