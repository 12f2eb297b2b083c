package model

// Result accumulates classified image URLs across every visited page.
// Both slices keep visitation order, then document order within a page.
type Result struct {
	// WithAlt holds image URLs that have a meaningful alt text.
	WithAlt []string `json:"withAlt"`

	// WithoutAlt holds image URLs whose alt attribute is missing or blank.
	WithoutAlt []string `json:"withoutAlt"`
}

// NewResult returns an empty Result with non-nil slices so that JSON output
// always contains arrays.
func NewResult() *Result {
	return &Result{
		WithAlt:    make([]string, 0),
		WithoutAlt: make([]string, 0),
	}
}

// Add appends the image URL to the matching list.
func (r *Result) Add(img ImageRecord) {
	if img.HasAlt {
		r.WithAlt = append(r.WithAlt, img.URL)
		return
	}
	r.WithoutAlt = append(r.WithoutAlt, img.URL)
}

// Total returns the number of images in both lists.
func (r *Result) Total() int {
	return len(r.WithAlt) + len(r.WithoutAlt)
}

// MissingRatio returns the share of images without alt text in [0, 1].
// It returns 0 when no images were found.
func (r *Result) MissingRatio() float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return float64(len(r.WithoutAlt)) / float64(total)
}
