package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "altscan"

	// DefaultTimeout bounds each HTTP request. A timed out request is
	// recorded as a network failure and the crawl moves on.
	DefaultTimeout = 20 * time.Second

	// DefaultCrawlDelay is the minimum interval between two fetch starts.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultMaxPages is the page limit per crawl. 0 means unlimited.
	DefaultMaxPages = 0

	// DefaultBatchSize is the number of crawls run concurrently when several
	// URLs are given.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies altscan in HTTP requests and is the agent
	// name matched against robots.txt groups.
	DefaultUserAgent = "altscan/1.0 (+https://github.com/nao1215/altscan)"

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// RobotsFallbackAllow crawls everything when robots.txt is unavailable.
	RobotsFallbackAllow = "allow"

	// RobotsFallbackDenyAll crawls nothing when robots.txt is unavailable.
	RobotsFallbackDenyAll = "deny_all"
)

// Config holds all configuration options for altscan.
// It is populated from CLI flags (and the optional config file) and passed
// down explicitly rather than kept in global state.
type Config struct {
	// Targets is the list of seed URLs to audit.
	Targets []string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// CrawlDelay is the minimum delay between successive fetches of one crawl.
	CrawlDelay time.Duration

	// MaxPages caps the number of pages fetched per crawl. 0 means no cap.
	MaxPages int

	// SinglePage audits only the seed page without following links.
	SinglePage bool

	// BatchSize is the number of crawls run concurrently for multiple targets.
	BatchSize int

	// UserAgent is the User-Agent header and robots.txt agent name.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// RelayBaseURL routes every fetch through a CORS relay such as
	// "https://api.allorigins.win/get". The target URL is passed in the
	// "url" query parameter. Empty means direct fetches.
	RelayBaseURL string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// RespectRobots enables robots.txt handling.
	RespectRobots bool

	// RobotsFallback decides what happens when robots.txt is unavailable:
	// RobotsFallbackAllow or RobotsFallbackDenyAll.
	RobotsFallback string

	// DedupImages reports each image URL once per crawl instead of once per
	// occurrence.
	DedupImages bool

	// IgnorePatterns are path globs whose links are never followed.
	IgnorePatterns []string

	// FollowPatterns, when set, restrict link following to matching paths.
	FollowPatterns []string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// JSONReport enables JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. Empty means stdout.
	ReportFile string

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// SiteConfigs holds the per-site overrides loaded from the config file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		CrawlDelay:     DefaultCrawlDelay,
		MaxPages:       DefaultMaxPages,
		BatchSize:      DefaultBatchSize,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		RespectRobots:  true,
		RobotsFallback: RobotsFallbackAllow,
	}
}

// XDGConfigDir returns the XDG config directory for altscan.
// On Linux: ~/.config/altscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if !IsValidRobotsFallback(c.RobotsFallback) {
		return ErrInvalidRobotsFallback
	}
	if c.RelayBaseURL != "" && !isHTTPURL(c.RelayBaseURL) {
		return ErrInvalidRelayURL
	}
	return nil
}

// IsValidRobotsFallback reports whether mode is a known robots fallback.
// The empty string is accepted and means RobotsFallbackAllow.
func IsValidRobotsFallback(mode string) bool {
	switch mode {
	case "", RobotsFallbackAllow, RobotsFallbackDenyAll:
		return true
	default:
		return false
	}
}

// ForTarget returns a copy of the configuration with the site overrides for
// target applied. The copy shares no slices or maps with c.
func (c *Config) ForTarget(target string) *Config {
	out := *c
	out.Targets = []string{target}
	out.IgnorePatterns = append([]string(nil), c.IgnorePatterns...)
	out.FollowPatterns = append([]string(nil), c.FollowPatterns...)
	if c.SiteConfigs == nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
		return &out
	}

	site := c.SiteConfigs.GetSiteConfig(target)
	if site.RelayBaseURL != "" {
		out.RelayBaseURL = site.RelayBaseURL
	}
	if site.UserAgent != "" {
		out.UserAgent = site.UserAgent
	}
	if site.CrawlDelay != nil {
		out.CrawlDelay = *site.CrawlDelay
	}
	if site.MaxPages != 0 {
		out.MaxPages = site.MaxPages
	}
	if site.RobotsFallback != "" {
		out.RobotsFallback = site.RobotsFallback
	}
	if site.RespectRobots != nil {
		out.RespectRobots = *site.RespectRobots
	}
	if len(site.IgnorePatterns) > 0 {
		out.IgnorePatterns = append([]string(nil), site.IgnorePatterns...)
	}
	if len(site.FollowPatterns) > 0 {
		out.FollowPatterns = append([]string(nil), site.FollowPatterns...)
	}

	headers := make(map[string]string, len(c.Headers)+len(site.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	for k, v := range site.Headers {
		headers[k] = v
	}
	out.Headers = headers
	return &out
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
