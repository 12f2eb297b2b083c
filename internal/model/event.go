package model

// Event is one incremental update emitted by a running crawl.
// A page visit yields one Event carrying the images found on that page;
// skipped or failed URLs yield an Event with Failure set.
type Event struct {
	// CrawlID identifies the crawl that emitted the event.
	CrawlID string `json:"crawlId"`

	// Sequence starts at 1 and increases by one per event of the same crawl.
	Sequence int `json:"sequence"`

	// PageURL is the URL the event refers to.
	PageURL string `json:"pageUrl"`

	// WithAlt lists image URLs with alt text found on this page.
	WithAlt []string `json:"withAlt,omitempty"`

	// WithoutAlt lists image URLs missing alt text found on this page.
	WithoutAlt []string `json:"withoutAlt,omitempty"`

	// Failure is set when the URL was skipped or could not be processed.
	Failure *Failure `json:"failure,omitempty"`
}

// ImageCount returns the number of images carried by the event.
func (e Event) ImageCount() int {
	return len(e.WithAlt) + len(e.WithoutAlt)
}
