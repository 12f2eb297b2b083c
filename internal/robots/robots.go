package robots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/nao1215/altscan/internal/fetcher"
)

// Fallback selects the behavior when robots.txt is unavailable.
type Fallback string

const (
	// FallbackAllow permits every URL (fail-open).
	FallbackAllow Fallback = "allow"
	// FallbackDenyAll permits no URL.
	FallbackDenyAll Fallback = "deny_all"
)

// ParseFallback converts a configuration string into a Fallback.
// An empty string selects FallbackAllow.
func ParseFallback(s string) (Fallback, error) {
	switch Fallback(strings.ToLower(strings.TrimSpace(s))) {
	case "", FallbackAllow:
		return FallbackAllow, nil
	case FallbackDenyAll:
		return FallbackDenyAll, nil
	default:
		return "", fmt.Errorf("unknown robots fallback %q", s)
	}
}

// Policy is the robots.txt decision for one origin.
type Policy struct {
	data     *robotstxt.RobotsData
	fallback Fallback
	degraded bool
	reason   string
}

// AllowAll returns a policy that permits every URL.
func AllowAll() *Policy {
	return &Policy{fallback: FallbackAllow}
}

// Parse builds a policy from robots.txt content.
func Parse(content []byte) (*Policy, error) {
	data, err := robotstxt.FromBytes(content)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return &Policy{data: data, fallback: FallbackAllow}, nil
}

// Degrade returns a policy that follows fallback because robots.txt was
// unavailable for the given reason.
func Degrade(fallback Fallback, reason string) *Policy {
	return &Policy{fallback: fallback, degraded: true, reason: reason}
}

// Allowed reports whether rawURL may be fetched by userAgent. An empty user
// agent matches the "*" group. Unparsable URLs are never allowed.
func (p *Policy) Allowed(rawURL, userAgent string) bool {
	if p == nil {
		return true
	}
	if p.degraded {
		return p.fallback != FallbackDenyAll
	}
	if p.data == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if userAgent == "" {
		userAgent = "*"
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return p.data.TestAgent(path, userAgent)
}

// Degraded reports whether robots.txt was unavailable.
func (p *Policy) Degraded() bool {
	return p != nil && p.degraded
}

// Reason describes why the policy is degraded. It is empty otherwise.
func (p *Policy) Reason() string {
	if p == nil {
		return ""
	}
	return p.reason
}

// Fallback returns the fallback mode of the policy.
func (p *Policy) Fallback() Fallback {
	if p == nil {
		return FallbackAllow
	}
	return p.fallback
}

// Options configures Build.
type Options struct {
	// Respect disables robots.txt entirely when false.
	Respect bool
	// Fallback applies when robots.txt is unavailable.
	Fallback Fallback
	// Logger receives the degraded-mode warning. Defaults to slog.Default().
	Logger *slog.Logger
}

// Build fetches {origin}/robots.txt once through f and derives the policy.
// It never fails: problems yield a degraded policy.
func Build(ctx context.Context, f fetcher.Fetcher, origin string, opts Options) *Policy {
	if !opts.Respect {
		return AllowAll()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fallback := opts.Fallback
	if fallback == "" {
		fallback = FallbackAllow
	}

	robotsURL := strings.TrimSuffix(origin, "/") + "/robots.txt"
	doc, err := f.Fetch(ctx, robotsURL)
	if err != nil {
		var httpErr *fetcher.HTTPError
		if errors.As(err, &httpErr) && httpErr.IsClientError() {
			logger.Debug("robots.txt not published, allowing all",
				"url", robotsURL,
				"status", httpErr.StatusCode)
			return policyFromStatus(httpErr.StatusCode)
		}
		return degrade(logger, robotsURL, fallback, err.Error())
	}

	policy, err := Parse([]byte(doc.Body))
	if err != nil {
		return degrade(logger, robotsURL, fallback, err.Error())
	}
	policy.fallback = fallback
	logger.Debug("robots.txt loaded", "url", robotsURL)
	return policy
}

// policyFromStatus maps a 4xx status to the "no rules" policy.
func policyFromStatus(status int) *Policy {
	data, err := robotstxt.FromStatusAndBytes(status, nil)
	if err != nil {
		return AllowAll()
	}
	return &Policy{data: data, fallback: FallbackAllow}
}

func degrade(logger *slog.Logger, robotsURL string, fallback Fallback, reason string) *Policy {
	logger.Warn("robots.txt unavailable, using fallback",
		"url", robotsURL,
		"fallback", string(fallback),
		"reason", reason)
	return Degrade(fallback, reason)
}
