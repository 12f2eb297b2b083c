package config

import (
	"net/url"
	"strings"
	"time"
)

// SiteConfig holds overrides for a single site, keyed by host or origin in
// the configuration file.
type SiteConfig struct {
	// RelayBaseURL routes fetches for this site through a relay.
	RelayBaseURL string `yaml:"relay,omitempty"`

	// UserAgent overrides the global User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`

	// CrawlDelay overrides the global delay between fetches.
	CrawlDelay *time.Duration `yaml:"crawlDelay,omitempty"`

	// MaxPages overrides the global page limit. Zero keeps the global value.
	MaxPages int `yaml:"maxPages,omitempty"`

	// RespectRobots overrides robots.txt handling.
	RespectRobots *bool `yaml:"respectRobots,omitempty"`

	// RobotsFallback overrides the behaviour when robots.txt is unavailable.
	RobotsFallback string `yaml:"robotsFallback,omitempty"`

	// Headers are extra HTTP headers sent with every request to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are path globs (e.g. "/admin/*") never followed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict link following to matching paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .altscan configuration file.
type File struct {
	// Sites maps a host ("example.com") or origin ("https://example.com")
	// to its overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for the given target URL, merging
// the site-specific entry (matched by origin first, then by host) over the
// defaults.
func (cf *File) GetSiteConfig(target string) SiteConfig {
	result := cf.Defaults
	if result.Headers != nil {
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	site, ok := cf.lookup(target)
	if !ok {
		return result
	}

	if site.RelayBaseURL != "" {
		result.RelayBaseURL = site.RelayBaseURL
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.CrawlDelay != nil {
		result.CrawlDelay = site.CrawlDelay
	}
	if site.MaxPages != 0 {
		result.MaxPages = site.MaxPages
	}
	if site.RespectRobots != nil {
		result.RespectRobots = site.RespectRobots
	}
	if site.RobotsFallback != "" {
		result.RobotsFallback = site.RobotsFallback
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// lookup finds the site entry for target.
func (cf *File) lookup(target string) (SiteConfig, bool) {
	if cf.Sites == nil {
		return SiteConfig{}, false
	}
	if site, ok := cf.Sites[target]; ok {
		return site, true
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return SiteConfig{}, false
	}
	origin := strings.ToLower(u.Scheme + "://" + u.Host)
	for _, key := range []string{origin, strings.ToLower(u.Host), strings.ToLower(u.Hostname())} {
		if site, ok := cf.Sites[key]; ok {
			return site, true
		}
	}
	return SiteConfig{}, false
}
