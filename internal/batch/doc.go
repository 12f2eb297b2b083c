// Package batch runs independent crawls concurrently.
//
// Each seed gets its own crawler instance from a factory, so crawls never
// share mutable state. Concurrency is bounded with errgroup.SetLimit and a
// failing or cancelled crawl never stops the others.
package batch
