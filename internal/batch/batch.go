package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/altscan/internal/model"
)

// DefaultConcurrency is the number of crawls run at the same time.
const DefaultConcurrency = 4

// Crawler runs one crawl to completion.
type Crawler interface {
	Crawl(ctx context.Context, seed string) (*model.Summary, error)
}

// Factory builds the crawler for one seed.
type Factory func(seed string) (Crawler, error)

// Processor handles concurrent crawling of multiple seeds.
type Processor struct {
	// factory creates a crawler for each seed, so per-site settings
	// can differ between seeds.
	factory Factory

	// concurrency is the maximum number of concurrent crawls.
	concurrency int

	logger *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets a custom logger for batch processing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent crawls.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewProcessor creates a new Processor.
func NewProcessor(factory Factory, opts ...Option) *Processor {
	p := &Processor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// ProcessBatch crawls every seed and returns one summary per seed, in
// input order. Seeds that never started because ctx was cancelled get a
// Cancelled summary. The error is non-nil only when ctx was cancelled.
func (p *Processor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.Summary, error) {
	summaries := make([]*model.Summary, len(seeds))
	err := p.ProcessBatchWithCallback(ctx, seeds, func(summary *model.Summary, index int) {
		summaries[index] = summary
	})
	return summaries, err
}

// ProcessBatchWithCallback crawls every seed and calls callback once per
// seed as soon as its crawl ends. The callback runs on the crawl's
// goroutine and must be safe for concurrent use.
func (p *Processor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(summary *model.Summary, index int),
) error {
	p.logger.Info("starting batch crawl",
		"total_seeds", len(seeds),
		"concurrency", p.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			callback(p.crawlOne(gctx, seed, i, len(seeds)), i)
			return nil
		})
	}

	// Goroutines never return errors; failures live in the summaries.
	_ = g.Wait()

	p.logger.Info("batch crawl complete",
		"total_seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)

	return ctx.Err()
}

func (p *Processor) crawlOne(ctx context.Context, seed string, index, total int) *model.Summary {
	if err := ctx.Err(); err != nil {
		summary := model.NewSummary("", seed)
		summary.Status = model.StatusCancelled
		summary.Reason = err.Error()
		summary.FinishedAt = summary.StartedAt
		return summary
	}

	p.logger.Info("crawling seed", "seed", seed, "index", index+1, "total", total)

	crawler, err := p.factory(seed)
	if err != nil {
		p.logger.Warn("crawler setup failed", "seed", seed, "error", err)
		summary := model.NewSummary("", seed)
		summary.Status = model.StatusFailed
		summary.Reason = fmt.Sprintf("setup: %v", err)
		summary.FinishedAt = time.Now()
		return summary
	}

	summary, err := crawler.Crawl(ctx, seed)
	if err != nil {
		p.logger.Warn("crawl failed", "seed", seed, "error", err)
	}
	if summary == nil {
		summary = model.NewSummary("", seed)
		summary.Status = model.StatusFailed
		if err != nil {
			summary.Reason = err.Error()
		}
		summary.FinishedAt = time.Now()
	}

	p.logger.Info("crawl ended", "seed", seed, "status", summary.Status.String())
	return summary
}

// AllFailed reports whether every summary ended in the Failed state.
// An empty batch has not failed.
func AllFailed(summaries []*model.Summary) bool {
	if len(summaries) == 0 {
		return false
	}
	for _, s := range summaries {
		if s == nil || s.Status != model.StatusFailed {
			return false
		}
	}
	return true
}
