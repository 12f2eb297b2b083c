package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/altscan/internal/extract"
	"github.com/nao1215/altscan/internal/fetcher"
	"github.com/nao1215/altscan/internal/model"
	"github.com/nao1215/altscan/internal/robots"
)

// Default values for Spider.
const (
	// DefaultDelay is the minimum time between the starts of two fetches.
	DefaultDelay = 500 * time.Millisecond

	// DefaultEventBuffer is the capacity of a crawl's event channel.
	DefaultEventBuffer = 64
)

// Spider crawls a site and classifies its images by alt text.
// A Spider is safe for concurrent use; each crawl keeps its own state.
type Spider struct {
	// fetcher performs every outbound request, robots.txt included.
	fetcher fetcher.Fetcher

	// delay is the minimum time between fetch starts.
	delay time.Duration

	// maxPages limits the number of fetch attempts per crawl.
	// 0 means unlimited.
	maxPages int

	// singlePage disables link following.
	singlePage bool

	// userAgent is matched against robots.txt groups.
	userAgent string

	// dedupImages drops repeated image URLs across the whole crawl.
	dedupImages bool

	// respectRobots enables the robots.txt policy.
	respectRobots bool

	// robotsFallback applies when robots.txt is unavailable.
	robotsFallback robots.Fallback

	// filter restricts which discovered links are followed.
	filter pathFilter

	// eventBuffer is the capacity of the event channel.
	eventBuffer int

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithDelay sets the delay between fetches.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithMaxPages sets the maximum number of pages to fetch. 0 means
// unlimited.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		if maxPages >= 0 {
			s.maxPages = maxPages
		}
	}
}

// WithSinglePage audits only the seed page.
func WithSinglePage(single bool) SpiderOption {
	return func(s *Spider) {
		s.singlePage = single
	}
}

// WithUserAgent sets the user agent matched against robots.txt.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithDedupImages reports each image URL once per crawl.
func WithDedupImages(dedup bool) SpiderOption {
	return func(s *Spider) {
		s.dedupImages = dedup
	}
}

// WithRespectRobots enables or disables robots.txt.
func WithRespectRobots(respect bool) SpiderOption {
	return func(s *Spider) {
		s.respectRobots = respect
	}
}

// WithRobotsFallback sets the policy used when robots.txt is unavailable.
func WithRobotsFallback(fallback robots.Fallback) SpiderOption {
	return func(s *Spider) {
		if fallback != "" {
			s.robotsFallback = fallback
		}
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.filter.ignore = patterns
	}
}

// WithFollowPatterns restricts crawling to URL paths matching at least one
// of the patterns. The seed is always fetched.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.filter.follow = patterns
	}
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(size int) SpiderOption {
	return func(s *Spider) {
		if size >= 0 {
			s.eventBuffer = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a Spider that fetches through f.
func NewSpider(f fetcher.Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:        f,
		delay:          DefaultDelay,
		userAgent:      fetcher.DefaultUserAgent,
		respectRobots:  true,
		robotsFallback: robots.FallbackAllow,
		eventBuffer:    DefaultEventBuffer,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start begins crawling from seed in a new goroutine.
// The crawl stops when ctx is cancelled or Handle.Cancel is called.
func (s *Spider) Start(ctx context.Context, seed string) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := newHandle(uuid.NewString(), cancel, s.eventBuffer)
	go s.run(ctx, h, seed)
	return h
}

// Crawl runs a crawl to completion, discarding incremental events.
// The only error is ErrSeedInvalid; every other problem is reported in
// the summary's failures.
func (s *Spider) Crawl(ctx context.Context, seed string) (*model.Summary, error) {
	h := s.Start(ctx, seed)
	for range h.Events() {
	}
	summary := h.Wait()
	return summary, h.Err()
}

// crawlState is the per-crawl state owned by the run goroutine.
type crawlState struct {
	handle   *Handle
	summary  *model.Summary
	logger   *slog.Logger
	sequence int
	seen     map[string]struct{}
}

// emit delivers ev unless ctx is done.
func (c *crawlState) emit(ctx context.Context, ev model.Event) bool {
	c.sequence++
	ev.CrawlID = c.handle.id
	ev.Sequence = c.sequence
	select {
	case c.handle.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// fail records a non-fatal failure and emits it as an event.
func (c *crawlState) fail(ctx context.Context, f model.Failure) bool {
	c.summary.Failures = append(c.summary.Failures, f)
	return c.emit(ctx, model.Event{PageURL: f.URL, Failure: &f})
}

func (s *Spider) run(ctx context.Context, h *Handle, seed string) {
	summary := model.NewSummary(h.id, seed)
	var setupErr error
	defer func() {
		summary.FinishedAt = time.Now()
		h.finish(summary, setupErr)
	}()

	target, err := newCrawlTarget(seed)
	if err != nil {
		setupErr = err
		summary.Status = model.StatusFailed
		summary.Reason = err.Error()
		s.logger.Warn("crawl failed", "crawl_id", h.id, "seed", seed, "error", err)
		return
	}

	summary.Status = model.StatusRunning
	h.setStatus(model.StatusRunning)

	state := &crawlState{
		handle:  h,
		summary: summary,
		logger:  s.logger.With("crawl_id", h.id, "origin", target.origin),
	}
	if s.dedupImages {
		state.seen = make(map[string]struct{})
	}
	state.logger.Info("crawl started", "seed", target.seed.String(), "single_page", s.singlePage)

	if s.walk(ctx, state, target) {
		summary.Status = model.StatusCompleted
	} else {
		summary.Status = model.StatusCancelled
		summary.Reason = cancelReason(ctx)
	}

	state.logger.Info("crawl finished",
		"status", summary.Status.String(),
		"pages", summary.PagesVisited,
		"with_alt", len(summary.Result.WithAlt),
		"without_alt", len(summary.Result.WithoutAlt),
		"failures", len(summary.Failures))
}

// walk runs the breadth-first loop. It returns false when the crawl was
// cancelled.
func (s *Spider) walk(ctx context.Context, state *crawlState, target *crawlTarget) bool {
	limiter := NewRateLimiter(s.delay)
	if s.respectRobots {
		if err := limiter.Wait(ctx); err != nil {
			return false
		}
	}

	policy := robots.Build(ctx, s.fetcher, target.origin, robots.Options{
		Respect:  s.respectRobots,
		Fallback: s.robotsFallback,
		Logger:   state.logger,
	})
	if ctx.Err() != nil {
		return false
	}
	if policy.Degraded() {
		state.summary.RobotsDegraded = true
		ok := state.fail(ctx, model.Failure{
			URL:     target.origin + "/robots.txt",
			Kind:    model.FailureRobotsUnavailable,
			Message: policy.Reason(),
		})
		if !ok {
			return false
		}
	}

	state.logger.Debug("crawl policy",
		"delay", limiter.Delay(),
		"max_pages", s.maxPages,
		"robots_fallback", string(policy.Fallback()),
		"robots_degraded", policy.Degraded())

	queue := newFrontier(target.seed.String())
	visited := make(visitedSet)
	attempts := 0

	// redirected is set when the current fetch followed a guarded hop.
	var redirected bool
	fetchCtx := fetcher.WithRedirectGuard(ctx, func(hop *url.URL) error {
		u := hop.String()
		if visited.contains(u) {
			return errRedirectVisited
		}
		if target.sameOrigin(u) && !policy.Allowed(u, s.userAgent) {
			return errRedirectDisallowed
		}
		visited.add(u)
		redirected = true
		return nil
	})

	for queue.len() > 0 {
		if ctx.Err() != nil {
			return false
		}
		if s.maxPages > 0 && attempts >= s.maxPages {
			state.logger.Info("page limit reached", "max_pages", s.maxPages)
			return true
		}

		next, _ := queue.pop()
		if visited.contains(next) {
			continue
		}
		visited.add(next)

		if !policy.Allowed(next, s.userAgent) {
			state.logger.Debug("disallowed by robots.txt", "url", next)
			if !state.fail(ctx, model.Failure{URL: next, Kind: model.FailureDisallowed, Message: "disallowed by robots.txt"}) {
				return false
			}
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return false
		}

		attempts++
		redirected = false
		doc, err := s.fetcher.Fetch(fetchCtx, next)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			if !s.recordFetchError(ctx, state, next, err) {
				return false
			}
			continue
		}

		base := doc.FinalURL
		if base == "" {
			base = next
		}
		if !redirected && normalizeURL(base) != normalizeURL(next) {
			// A relay reports the final URL only after following it.
			skip, ok := s.checkLanding(ctx, state, target, policy, visited, base)
			if !ok {
				return false
			}
			if skip {
				continue
			}
			visited.add(base)
		}
		if state.summary.PagesVisited == 0 && !target.sameOrigin(base) {
			state.logger.Warn("seed redirected to another origin; only links within the seed origin are followed",
				"seed", target.seed.String(),
				"final_url", base)
		}
		state.summary.PagesVisited++

		extraction, err := extract.Extract(doc.Body, base)
		if err != nil {
			state.logger.Info("extraction degraded", "url", base, "error", err)
			if !state.fail(ctx, model.Failure{URL: base, Kind: model.FailureParseDegraded, Message: err.Error()}) {
				return false
			}
			continue
		}

		if !state.emit(ctx, s.collect(state, base, extraction.Images)) {
			return false
		}

		if s.singlePage {
			continue
		}
		for _, link := range extraction.Links {
			if strings.Contains(link, "#") || !target.sameOrigin(link) || !s.filter.allows(link) {
				continue
			}
			queue.push(link)
		}
	}

	return true
}

// recordFetchError turns a failed fetch into a failure entry. Redirects
// onto pages already visited are dropped silently. It returns false when
// the crawl was cancelled.
func (s *Spider) recordFetchError(ctx context.Context, state *crawlState, pageURL string, err error) bool {
	var redirectErr *fetcher.RedirectError
	if errors.As(err, &redirectErr) {
		if errors.Is(err, errRedirectVisited) {
			state.logger.Debug("redirect to visited page skipped", "url", pageURL, "target", redirectErr.Target)
			return true
		}
		state.logger.Debug("redirect disallowed by robots.txt", "url", pageURL, "target", redirectErr.Target)
		return state.fail(ctx, model.Failure{URL: redirectErr.Target, Kind: model.FailureDisallowed, Message: err.Error()})
	}

	state.logger.Info("fetch failed", "url", pageURL, "error", err)
	return state.fail(ctx, model.Failure{URL: pageURL, Kind: model.FailureFetch, Message: err.Error()})
}

// checkLanding vets a page reached through a redirect that was not guarded
// while it was followed. skip reports whether the page must be discarded.
func (s *Spider) checkLanding(ctx context.Context, state *crawlState, target *crawlTarget, policy *robots.Policy, visited visitedSet, landing string) (skip, ok bool) {
	if visited.contains(landing) {
		state.logger.Debug("redirect to visited page skipped", "url", landing)
		return true, true
	}
	if target.sameOrigin(landing) && !policy.Allowed(landing, s.userAgent) {
		return true, state.fail(ctx, model.Failure{URL: landing, Kind: model.FailureDisallowed, Message: errRedirectDisallowed.Error()})
	}
	return false, true
}

// cancelReason describes why a crawl stopped early.
func cancelReason(ctx context.Context) string {
	if err := context.Cause(ctx); err != nil {
		return err.Error()
	}
	return "crawl cancelled"
}

// collect appends the page's images to the accumulators in document order
// and returns the page event.
func (s *Spider) collect(state *crawlState, pageURL string, images []model.ImageRecord) model.Event {
	ev := model.Event{
		PageURL:    pageURL,
		WithAlt:    make([]string, 0),
		WithoutAlt: make([]string, 0),
	}

	for _, img := range images {
		if state.seen != nil {
			if _, dup := state.seen[img.URL]; dup {
				continue
			}
			state.seen[img.URL] = struct{}{}
		}

		state.summary.Result.Add(img)
		state.summary.Images = append(state.summary.Images, img)
		if img.HasAlt {
			ev.WithAlt = append(ev.WithAlt, img.URL)
		} else {
			ev.WithoutAlt = append(ev.WithoutAlt, img.URL)
		}
	}

	state.logger.Debug("page audited",
		"url", pageURL,
		"with_alt", len(ev.WithAlt),
		"without_alt", len(ev.WithoutAlt))
	return ev
}
