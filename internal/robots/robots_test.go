package robots

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/altscan/internal/fetcher"
)

// stubFetcher returns a fixed error for every fetch and counts calls.
type stubFetcher struct {
	err   error
	calls atomic.Int32
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) (*fetcher.Document, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &fetcher.Document{URL: rawURL, FinalURL: rawURL, StatusCode: http.StatusOK}, nil
}

func newRobotsServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			t.Errorf("unexpected request path %q", r.URL.Path)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newFetcher(t *testing.T) *fetcher.HTTPFetcher {
	t.Helper()
	f, err := fetcher.New()
	if err != nil {
		t.Fatalf("fetcher.New() error = %v", err)
	}
	return f
}

func TestPolicy_Allowed(t *testing.T) {
	t.Parallel()

	const robotsTxt = `User-agent: altscan
Disallow: /no-altscan

User-agent: *
Disallow: /private
Disallow: /a
Allow: /a/b
`

	policy, err := Parse([]byte(robotsTxt))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name      string
		url       string
		userAgent string
		want      bool
	}{
		{name: "root allowed", url: "https://example.com/", userAgent: "", want: true},
		{name: "private disallowed", url: "https://example.com/private", userAgent: "", want: false},
		{name: "under private disallowed", url: "https://example.com/private/photos/1", userAgent: "*", want: false},
		{name: "public allowed", url: "https://example.com/public", userAgent: "", want: true},
		{name: "longest rule wins for allow", url: "https://example.com/a/b/c", userAgent: "", want: true},
		{name: "shorter disallow applies elsewhere", url: "https://example.com/a/x", userAgent: "", want: false},
		{name: "specific agent group", url: "https://example.com/no-altscan", userAgent: "altscan/1.0", want: false},
		{name: "specific agent ignores star group", url: "https://example.com/private", userAgent: "altscan/1.0", want: true},
		{name: "other agent uses star group", url: "https://example.com/no-altscan", userAgent: "otherbot", want: true},
		{name: "empty path treated as root", url: "https://example.com", userAgent: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := policy.Allowed(tt.url, tt.userAgent); got != tt.want {
				t.Errorf("Allowed(%q, %q) = %v, want %v", tt.url, tt.userAgent, got, tt.want)
			}
		})
	}
}

func TestBuild_Success(t *testing.T) {
	t.Parallel()

	server := newRobotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private\n")

	policy := Build(context.Background(), newFetcher(t), server.URL, Options{Respect: true})
	if policy.Degraded() {
		t.Fatalf("Degraded() = true, reason %q", policy.Reason())
	}
	if policy.Allowed(server.URL+"/private/x", "") {
		t.Error("expected /private/x to be disallowed")
	}
	if !policy.Allowed(server.URL+"/gallery", "") {
		t.Error("expected /gallery to be allowed")
	}
}

func TestBuild_MissingRobotsAllowsAll(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNotFound, http.StatusGone, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()

			server := newRobotsServer(t, status, "")
			policy := Build(context.Background(), newFetcher(t), server.URL,
				Options{Respect: true, Fallback: FallbackDenyAll})

			if policy.Degraded() {
				t.Errorf("Degraded() = true for status %d, want false", status)
			}
			if !policy.Allowed(server.URL+"/anything", "") {
				t.Errorf("expected allow-all for status %d", status)
			}
		})
	}
}

func TestBuild_Unavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fallback  Fallback
		wantAllow bool
	}{
		{name: "fallback allow", fallback: FallbackAllow, wantAllow: true},
		{name: "fallback deny all", fallback: FallbackDenyAll, wantAllow: false},
		{name: "empty fallback means allow", fallback: "", wantAllow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newRobotsServer(t, http.StatusServiceUnavailable, "")

			var logBuf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logBuf, nil))

			policy := Build(context.Background(), newFetcher(t), server.URL,
				Options{Respect: true, Fallback: tt.fallback, Logger: logger})

			if !policy.Degraded() {
				t.Fatal("Degraded() = false, want true")
			}
			if policy.Reason() == "" {
				t.Error("Reason() is empty for a degraded policy")
			}
			if got := policy.Allowed(server.URL+"/page", ""); got != tt.wantAllow {
				t.Errorf("Allowed() = %v, want %v", got, tt.wantAllow)
			}
			if !strings.Contains(logBuf.String(), "level=WARN") {
				t.Errorf("expected a WARN log entry, got: %s", logBuf.String())
			}
		})
	}
}

func TestBuild_NetworkFailureDegrades(t *testing.T) {
	t.Parallel()

	stub := &stubFetcher{err: &fetcher.NetworkError{URL: "https://example.com/robots.txt", Err: errors.New("dial tcp: connection refused")}}
	policy := Build(context.Background(), stub, "https://example.com", Options{Respect: true})

	if !policy.Degraded() {
		t.Fatal("Degraded() = false, want true")
	}
	if !policy.Allowed("https://example.com/page", "") {
		t.Error("expected fail-open policy to allow")
	}
	if got := stub.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want exactly 1", got)
	}
}

func TestBuild_RespectDisabled(t *testing.T) {
	t.Parallel()

	stub := &stubFetcher{}
	policy := Build(context.Background(), stub, "https://example.com", Options{Respect: false})

	if got := stub.calls.Load(); got != 0 {
		t.Errorf("fetch calls = %d, want 0 when robots are not respected", got)
	}
	if policy.Degraded() {
		t.Error("Degraded() = true, want false")
	}
	if !policy.Allowed("https://example.com/private", "") {
		t.Error("expected allow-all policy")
	}
}

func TestParseFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Fallback
		wantErr bool
	}{
		{in: "", want: FallbackAllow},
		{in: "allow", want: FallbackAllow},
		{in: "ALLOW", want: FallbackAllow},
		{in: "deny_all", want: FallbackDenyAll},
		{in: " deny_all ", want: FallbackDenyAll},
		{in: "deny", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFallback(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFallback(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFallback(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPolicy_NilSafe(t *testing.T) {
	t.Parallel()

	var p *Policy
	if !p.Allowed("https://example.com/", "") {
		t.Error("nil policy should allow")
	}
	if p.Degraded() {
		t.Error("nil policy should not be degraded")
	}
}

func TestPolicy_Fallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy *Policy
		want   Fallback
	}{
		{name: "nil policy", policy: nil, want: FallbackAllow},
		{name: "allow all", policy: AllowAll(), want: FallbackAllow},
		{name: "degraded deny all", policy: Degrade(FallbackDenyAll, "status 503"), want: FallbackDenyAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.policy.Fallback(); got != tt.want {
				t.Errorf("Fallback() = %q, want %q", got, tt.want)
			}
		})
	}
}
