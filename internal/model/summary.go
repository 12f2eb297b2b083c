package model

import "time"

// Summary is the terminal record of a crawl.
// It is returned for every crawl, including cancelled and failed ones, and
// always contains whatever results were accumulated.
type Summary struct {
	// CrawlID is the unique identifier of the crawl.
	CrawlID string `json:"crawlId"`

	// Seed is the URL the crawl started from, as given by the caller.
	Seed string `json:"seed"`

	// Status is the terminal status.
	Status Status `json:"status"`

	// Reason explains a Cancelled or Failed status. Empty on completion.
	Reason string `json:"reason,omitempty"`

	// Result holds the classified image URLs.
	Result *Result `json:"result"`

	// Images holds every image record in the same order as Result.
	Images []ImageRecord `json:"images,omitempty"`

	// PagesVisited counts pages that were fetched successfully.
	PagesVisited int `json:"pagesVisited"`

	// Failures lists per-URL diagnostics in the order they occurred.
	Failures []Failure `json:"failures,omitempty"`

	// RobotsDegraded is true when robots.txt was unavailable and the
	// fallback policy was used.
	RobotsDegraded bool `json:"robotsDegraded"`

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// NewSummary creates a Summary for the given crawl with an empty result.
func NewSummary(crawlID, seed string) *Summary {
	return &Summary{
		CrawlID:   crawlID,
		Seed:      seed,
		Status:    StatusIdle,
		Result:    NewResult(),
		Images:    make([]ImageRecord, 0),
		Failures:  make([]Failure, 0),
		StartedAt: time.Now(),
	}
}

// Duration returns the elapsed crawl time.
func (s *Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// FailuresOf returns the failures of the given kind.
func (s *Summary) FailuresOf(kind FailureKind) []Failure {
	out := make([]Failure, 0)
	for _, f := range s.Failures {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
