package crawler

import "errors"

// ErrSeedInvalid is returned when the seed is not an absolute http or
// https URL. The crawl ends in the Failed state before any request is made.
var ErrSeedInvalid = errors.New("seed must be an absolute http or https URL")

// Reasons a redirect hop is refused during a crawl.
var (
	errRedirectDisallowed = errors.New("redirect target disallowed by robots.txt")
	errRedirectVisited    = errors.New("redirect target already visited")
)
