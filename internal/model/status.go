package model

import "fmt"

// Status is the lifecycle state of a crawl.
//
//	Idle -> Running -> {Completed, Cancelled, Failed}
type Status int

const (
	// StatusIdle is the state before the crawl loop starts.
	StatusIdle Status = iota

	// StatusRunning means the crawl loop is processing the frontier.
	StatusRunning

	// StatusCompleted means the frontier was exhausted or the page limit reached.
	StatusCompleted

	// StatusCancelled means the caller cancelled the crawl.
	// Results gathered until then are kept.
	StatusCancelled

	// StatusFailed means the crawl could not start, e.g. the seed URL is invalid.
	StatusFailed
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name produced by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusIdle, StatusRunning, StatusCompleted, StatusCancelled, StatusFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown crawl status %q", string(text))
}
