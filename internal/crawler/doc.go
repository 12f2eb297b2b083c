// Package crawler audits a site for images without alt text.
//
// # Architecture
//
// The package is built around the Spider type. A Spider holds long-lived
// configuration only; every crawl started with Start or Crawl gets its own
// frontier, visited set, rate limiter and result accumulators, owned by a
// single goroutine. Crawls never share mutable state, so one Spider can run
// many crawls in parallel.
//
// For each crawl the Spider:
//
//  1. validates the seed (an absolute http or https URL)
//  2. builds the robots.txt policy of the seed origin once
//  3. walks same-origin links breadth-first, one fetch at a time
//  4. extracts and classifies images of every fetched page
//  5. streams one Event per page and ends with a Summary
//
// # Termination
//
// A crawl is Completed when the frontier is empty or the page limit is
// reached, Cancelled when its context is cancelled (partial results are
// kept), and Failed only when the seed is invalid.
//
// # Usage
//
//	spider := crawler.NewSpider(f, crawler.WithDelay(time.Second))
//	handle := spider.Start(ctx, "https://example.com/")
//	for ev := range handle.Events() {
//		fmt.Println(ev.PageURL, len(ev.WithoutAlt))
//	}
//	summary := handle.Wait()
//
// Events must be drained (or the crawl cancelled); the crawl blocks while
// the event buffer is full.
package crawler
