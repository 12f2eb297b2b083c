// Package model defines the data structures shared by the crawler, the
// report writers and the CLI.
//
// This package contains the following main types:
//   - ImageRecord: one <img> occurrence and its alt classification
//   - Result: the two ordered lists of image URLs (with and without alt)
//   - Event: an incremental update streamed while a crawl runs
//   - Summary: the terminal record of a crawl, including diagnostics
//   - Status: the crawl lifecycle state
//
// The models are serializable to JSON for report output.
package model
