package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/altscan/internal/batch"
	"github.com/nao1215/altscan/internal/config"
	"github.com/nao1215/altscan/internal/crawler"
	"github.com/nao1215/altscan/internal/fetcher"
	altlog "github.com/nao1215/altscan/internal/log"
	"github.com/nao1215/altscan/internal/model"
	"github.com/nao1215/altscan/internal/report"
	"github.com/nao1215/altscan/internal/robots"
)

// errInterrupted is the cancellation cause when the user stops a crawl.
var errInterrupted = errors.New("interrupted by signal")

// errAllFailed is returned when no crawl could start.
var errAllFailed = errors.New("every crawl failed")

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Crawl a website and report images without alt text",
		Long: `Scan crawls each given URL, follows links within the same origin and
classifies every <img> element by whether it has a meaningful alt attribute.

Examples:
  # Audit a whole site
  altscan scan https://example.com

  # Audit only one page
  altscan scan --single https://example.com/about

  # Audit several sites concurrently
  altscan scan --batch 2 https://example.com https://example.org

  # Fetch through a CORS relay
  altscan scan --relay https://api.allorigins.win/get https://example.com

  # Write a Markdown report
  altscan scan --markdown -o report.md https://example.com

Configuration file (.altscan) example:
  defaults:
    crawlDelay: 1s
  sites:
    example.com:
      maxPages: 100
      headers:
        Accept-Language: "en-US"
      ignorePatterns:
        - "/admin/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Minimum delay between two requests")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch per site (0 = unlimited)")
	cmd.Flags().BoolP("single", "s", false,
		"Audit only the given page without following links")
	cmd.Flags().BoolP("dedup-images", "D", false,
		"Report each image URL once per site")
	cmd.Flags().StringSlice("ignore", nil,
		"Path patterns never followed (e.g. /admin/*)")
	cmd.Flags().StringSlice("follow", nil,
		"Only follow links whose path matches one of these patterns")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header and robots.txt agent name")
	cmd.Flags().StringP("relay", "r", "",
		"CORS relay base URL; the target is passed in the url query parameter")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")

	// robots.txt flags
	cmd.Flags().Bool("no-robots", false,
		"Ignore robots.txt (only for sites you own)")
	cmd.Flags().String("robots-fallback", config.RobotsFallbackAllow,
		"Behavior when robots.txt is unavailable: allow or deny_all")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .altscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel(errInterrupted)
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getBoolFlag retrieves a boolean flag from the command or its root.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.SinglePage, err = flags.GetBool("single"); err != nil {
		return nil, err
	}
	if cfg.DedupImages, err = flags.GetBool("dedup-images"); err != nil {
		return nil, err
	}
	if cfg.IgnorePatterns, err = flags.GetStringSlice("ignore"); err != nil {
		return nil, err
	}
	if cfg.FollowPatterns, err = flags.GetStringSlice("follow"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.RelayBaseURL, err = flags.GetString("relay"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}

	noRobots, err := flags.GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.RespectRobots = !noRobots

	if cfg.RobotsFallback, err = flags.GetString("robots-fallback"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicitly given config file must exist; otherwise a missing file
	// just means no site overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")
	cfg.Targets = args

	return cfg, nil
}

// setupLogger creates a structured logger with sensitive data redaction.
func setupLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return altlog.NewSecureJSONLogger(w, verbose)
	}
	return altlog.NewSecureLogger(w, verbose)
}

// newSpider builds the fetcher and spider for one target, applying the
// site overrides of the configuration file.
func newSpider(cfg *config.Config, target string, logger *slog.Logger) (*crawler.Spider, error) {
	tcfg := cfg.ForTarget(target)

	fallback, err := robots.ParseFallback(tcfg.RobotsFallback)
	if err != nil {
		return nil, err
	}

	f, err := fetcher.New(
		fetcher.WithUserAgent(tcfg.UserAgent),
		fetcher.WithTimeout(tcfg.Timeout),
		fetcher.WithMaxBodySize(tcfg.MaxBodySize),
		fetcher.WithRelay(tcfg.RelayBaseURL),
		fetcher.WithProxy(tcfg.ProxyAddress),
		fetcher.WithHeaders(tcfg.Headers),
		fetcher.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}
	if relay := f.Relay(); relay != "" {
		logger.Debug("fetching through relay", "target", target, "relay", relay)
	}

	return crawler.NewSpider(f,
		crawler.WithDelay(tcfg.CrawlDelay),
		crawler.WithMaxPages(tcfg.MaxPages),
		crawler.WithSinglePage(tcfg.SinglePage),
		crawler.WithUserAgent(tcfg.UserAgent),
		crawler.WithDedupImages(tcfg.DedupImages),
		crawler.WithRespectRobots(tcfg.RespectRobots),
		crawler.WithRobotsFallback(fallback),
		crawler.WithIgnorePatterns(tcfg.IgnorePatterns),
		crawler.WithFollowPatterns(tcfg.FollowPatterns),
		crawler.WithLogger(logger),
	), nil
}

// runScan crawls every target and writes the report.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more URLs as arguments)")
	}

	logger.Info("starting scan",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"relay", cfg.RelayBaseURL,
		"respectRobots", cfg.RespectRobots,
	)

	var summaries []*model.Summary
	if len(cfg.Targets) == 1 {
		summary, err := runSingleScan(ctx, cfg, logger, stderr)
		if err != nil {
			return err
		}
		summaries = []*model.Summary{summary}
	} else {
		summaries = runBatchScan(ctx, cfg, logger, stderr)
	}

	if err := outputReport(cfg, stdout, summaries); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if batch.AllFailed(summaries) {
		return errAllFailed
	}
	return nil
}

// runSingleScan crawls one target and prints per-page progress.
func runSingleScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress io.Writer) (*model.Summary, error) {
	target := cfg.Targets[0]
	spider, err := newSpider(cfg, target, logger)
	if err != nil {
		return nil, fmt.Errorf("configuration error for %s: %w", target, err)
	}

	fmt.Fprintf(progress, "Scanning %s...\n", target)
	startTime := time.Now()

	handle := spider.Start(ctx, target)
	for ev := range handle.Events() {
		printProgress(progress, ev)
	}
	summary := handle.Wait()
	if err := handle.Err(); err != nil {
		fmt.Fprintf(progress, "Scan error for %s: %v\n", target, err)
	}

	fmt.Fprintf(progress, "Scan %s in %s\n\n", summary.Status, time.Since(startTime).Round(time.Millisecond))
	return summary, nil
}

// printProgress writes one line per crawl event.
func printProgress(w io.Writer, ev model.Event) {
	if ev.Failure != nil {
		fmt.Fprintf(w, "  [%s] %s\n", ev.Failure.Kind, ev.PageURL)
		return
	}
	fmt.Fprintf(w, "  [page] %s: %d image(s), %d without alt\n",
		ev.PageURL, ev.ImageCount(), len(ev.WithoutAlt))
}

// runBatchScan crawls multiple targets concurrently.
func runBatchScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress io.Writer) []*model.Summary {
	fmt.Fprintf(progress, "Starting batch scan of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)
	startTime := time.Now()

	bp := batch.NewProcessor(
		func(seed string) (batch.Crawler, error) {
			return newSpider(cfg, seed, logger)
		},
		batch.WithConcurrency(cfg.BatchSize),
		batch.WithLogger(logger),
	)

	summaries := make([]*model.Summary, len(cfg.Targets))
	var mu sync.Mutex
	done := 0
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(summary *model.Summary, index int) {
		mu.Lock()
		defer mu.Unlock()

		summaries[index] = summary
		done++
		fmt.Fprintf(progress, "[%d/%d] %s: %s (%d image(s), %d without alt)\n",
			done, len(cfg.Targets), summary.Seed, summary.Status,
			summary.Result.Total(), len(summary.Result.WithoutAlt))
	})
	if err != nil {
		logger.Warn("batch scan interrupted", "error", err)
	}

	fmt.Fprintf(progress, "\nBatch scan completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))
	return summaries
}

// outputReport writes the summaries in the requested format.
func outputReport(cfg *config.Config, stdout io.Writer, summaries []*model.Summary) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	writer := newReportWriter(cfg, output)
	var err error
	if len(summaries) == 1 {
		_, err = writer.Write(summaries[0])
	} else {
		_, err = writer.WriteAll(summaries)
	}
	return err
}

// newReportWriter selects the report format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
