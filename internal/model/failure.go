package model

// FailureKind classifies a non-fatal problem met during a crawl.
type FailureKind string

const (
	// FailureFetch is a network, HTTP or relay failure for one URL.
	FailureFetch FailureKind = "fetch_failed"

	// FailureRobotsUnavailable means robots.txt could not be retrieved and the
	// configured fallback policy is in effect.
	FailureRobotsUnavailable FailureKind = "robots_unavailable"

	// FailureParseDegraded means a page body could not be extracted.
	FailureParseDegraded FailureKind = "parse_degraded"

	// FailureDisallowed means robots.txt forbids the URL, so it was skipped.
	FailureDisallowed FailureKind = "disallowed"
)

// Failure is a per-URL diagnostic kept next to the crawl result.
type Failure struct {
	// URL is the page (or robots.txt) URL concerned.
	URL string `json:"url"`

	// Kind is the failure category.
	Kind FailureKind `json:"kind"`

	// Message is a human-readable description, usually the error text.
	Message string `json:"message"`
}
