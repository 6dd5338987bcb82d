package insights

import (
	"errors"
	"fmt"
)

// ValidationError means the caller's input was malformed
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// InsufficientPanelsError is returned when a comparison has fewer than two panels
type InsufficientPanelsError struct {
	Requested int
	Resolved  int
}

func (e *InsufficientPanelsError) Error() string {
	if e.Requested < MinComparePanels {
		return fmt.Sprintf("at least %d panels are required for a comparison, got %d", MinComparePanels, e.Requested)
	}
	return fmt.Sprintf("only %d of %d requested panels could be resolved, at least %d are required",
		e.Resolved, e.Requested, MinComparePanels)
}

// NotFoundError means a referenced panel or interview does not exist
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Ref)
}

// UpstreamFetchError wraps a failure of the evaluation store or panel resolver
type UpstreamFetchError struct {
	Op  string
	Err error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a caller input error of any kind
func IsValidation(err error) bool {
	var v *ValidationError
	var p *InsufficientPanelsError
	return errors.As(err, &v) || errors.As(err, &p)
}

// IsNotFound reports whether err wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUpstream reports whether err wraps an UpstreamFetchError
func IsUpstream(err error) bool {
	var up *UpstreamFetchError
	return errors.As(err, &up)
}
