package models

import "fmt"

// ValidationError is returned when the request itself is unusable, before
// any pipeline stage runs: unparseable dates or an inverted range. Always a
// caller mistake, never a service fault.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid analysis request: %s", e.Reason)
}

// InsufficientDataError is returned when the requested period has too few
// mood records to analyze. User-recoverable: log more days, then retry.
type InsufficientDataError struct {
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient mood data: need at least %d records, have %d", e.Required, e.Available)
}

// UpstreamUnavailableError is returned when the model service could not be
// reached or kept failing until the retry budget ran out. StatusCode is the
// last observed HTTP status, 0 if the failure never reached the wire.
type UpstreamUnavailableError struct {
	Attempts   int
	StatusCode int
	Err        error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model service unavailable after %d attempt(s), last status %d: %v", e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("model service unavailable after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// MalformedResponseError is returned when no parse strategy could recover
// the required report sections from the model output. RawPayload carries the
// original text for diagnostics. Never retried: the parse is deterministic.
type MalformedResponseError struct {
	Reason     string
	RawPayload string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

// PersistenceError is returned when the report row could not be written.
// The run fails whole; no partial artifact exists and the model call is not
// repeated.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
