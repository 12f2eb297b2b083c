package crawler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty path becomes root", in: "https://example.com", want: "https://example.com/"},
		{name: "fragment removed", in: "https://example.com/page#section", want: "https://example.com/page"},
		{name: "scheme and host lowercased", in: "HTTPS://Example.COM/Path", want: "https://example.com/Path"},
		{name: "default https port removed", in: "https://example.com:443/a", want: "https://example.com/a"},
		{name: "default http port removed", in: "http://example.com:80/a", want: "http://example.com/a"},
		{name: "custom port kept", in: "http://example.com:8080/a", want: "http://example.com:8080/a"},
		{name: "query kept", in: "https://example.com/a?page=2", want: "https://example.com/a?page=2"},
		{name: "trailing slash significant", in: "https://example.com/a/", want: "https://example.com/a/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := normalizeURL(tt.in); got != tt.want {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCrawlTarget(t *testing.T) {
	t.Parallel()

	t.Run("valid seeds", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			seed       string
			wantOrigin string
		}{
			{seed: "https://example.com/", wantOrigin: "https://example.com"},
			{seed: "https://Example.com:443/gallery#top", wantOrigin: "https://example.com"},
			{seed: "http://127.0.0.1:8080/x", wantOrigin: "http://127.0.0.1:8080"},
			{seed: "http://[::1]:9000/", wantOrigin: "http://[::1]:9000"},
		}
		for _, tt := range tests {
			target, err := newCrawlTarget(tt.seed)
			if err != nil {
				t.Fatalf("newCrawlTarget(%q) error = %v", tt.seed, err)
			}
			if target.origin != tt.wantOrigin {
				t.Errorf("origin = %q, want %q", target.origin, tt.wantOrigin)
			}
			if target.seed.Fragment != "" {
				t.Errorf("seed fragment = %q, want it stripped", target.seed.Fragment)
			}
		}
	})

	t.Run("invalid seeds", func(t *testing.T) {
		t.Parallel()

		for _, seed := range []string{"", "example.com", "/relative", "ftp://example.com/", "mailto:a@b.c", "https://", "://x"} {
			if _, err := newCrawlTarget(seed); !errors.Is(err, ErrSeedInvalid) {
				t.Errorf("newCrawlTarget(%q) error = %v, want ErrSeedInvalid", seed, err)
			}
		}
	})

	t.Run("same origin", func(t *testing.T) {
		t.Parallel()

		target, err := newCrawlTarget("https://example.com/start")
		if err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			url  string
			want bool
		}{
			{url: "https://example.com/other", want: true},
			{url: "https://EXAMPLE.com:443/x", want: true},
			{url: "http://example.com/other", want: false},
			{url: "https://example.com:8443/other", want: false},
			{url: "https://sub.example.com/", want: false},
			{url: "https://other.com/", want: false},
		}
		for _, tt := range tests {
			if got := target.sameOrigin(tt.url); got != tt.want {
				t.Errorf("sameOrigin(%q) = %v, want %v", tt.url, got, tt.want)
			}
		}
	})
}

func TestFrontier_FIFO(t *testing.T) {
	t.Parallel()

	f := newFrontier("a")
	f.push("b")
	f.push("c")
	f.push("b")

	want := []string{"a", "b", "c", "b"}
	for i, w := range want {
		got, ok := f.pop()
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		if got != w {
			t.Errorf("pop %d = %q, want %q", i, got, w)
		}
	}
	if _, ok := f.pop(); ok {
		t.Error("expected empty frontier")
	}
	if f.len() != 0 {
		t.Errorf("len = %d, want 0", f.len())
	}
}

func TestVisitedSet(t *testing.T) {
	t.Parallel()

	v := make(visitedSet)
	v.add("https://example.com")

	for _, u := range []string{"https://example.com/", "https://example.com/#top", "HTTPS://EXAMPLE.COM:443"} {
		if !v.contains(u) {
			t.Errorf("contains(%q) = false, want true", u)
		}
	}
	if v.contains("https://example.com/other") {
		t.Error("contains(/other) = true, want false")
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"admin prefix match", "/admin/*", "/admin/dashboard", true},
		{"admin prefix exact", "/admin/*", "/admin", true},
		{"admin prefix no match", "/admin/*", "/user/profile", false},
		{"admin prefix partial no match", "/admin/*", "/administrator", false},
		{"nested admin", "/admin/*", "/admin/users/edit", true},

		{"pdf extension", "*.pdf", "/docs/file.pdf", true},
		{"pdf extension nested", "*.pdf", "/a/b/c/report.pdf", true},
		{"pdf extension no match", "*.pdf", "/docs/file.txt", false},

		{"exact match", "/logout", "/logout", true},
		{"exact no match", "/logout", "/login", false},

		{"wildcard middle", "/blog/page-?", "/blog/page-2", true},
		{"wildcard middle no match", "/blog/page-?", "/blog/page-10", false},

		{"root path", "/", "/", true},
		{"root no match prefix", "/admin/*", "/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := matchPattern(tt.pattern, tt.path)
			if got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestPathFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter pathFilter
		url    string
		want   bool
	}{
		{name: "no patterns", filter: pathFilter{}, url: "https://ex.com/anything", want: true},
		{name: "ignored", filter: pathFilter{ignore: []string{"/admin/*"}}, url: "https://ex.com/admin/x", want: false},
		{name: "not ignored", filter: pathFilter{ignore: []string{"/admin/*"}}, url: "https://ex.com/blog", want: true},
		{name: "followed", filter: pathFilter{follow: []string{"/blog/*"}}, url: "https://ex.com/blog/post", want: true},
		{name: "not followed", filter: pathFilter{follow: []string{"/blog/*"}}, url: "https://ex.com/shop", want: false},
		{
			name:   "ignore beats follow",
			filter: pathFilter{ignore: []string{"*.pdf"}, follow: []string{"/blog/*"}},
			url:    "https://ex.com/blog/file.pdf",
			want:   false,
		},
		{name: "empty path is root", filter: pathFilter{follow: []string{"/"}}, url: "https://ex.com", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.filter.allows(tt.url); got != tt.want {
				t.Errorf("allows(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("enforces delay between waits", func(t *testing.T) {
		t.Parallel()

		limiter := NewRateLimiter(50 * time.Millisecond)
		start := time.Now()
		for range 3 {
			if err := limiter.Wait(context.Background()); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		}
		if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
			t.Errorf("3 waits took %v, want at least ~100ms", elapsed)
		}
	})

	t.Run("zero delay never blocks", func(t *testing.T) {
		t.Parallel()

		limiter := NewRateLimiter(0)
		start := time.Now()
		for range 100 {
			if err := limiter.Wait(context.Background()); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("100 waits took %v with no delay", elapsed)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		limiter := NewRateLimiter(time.Hour)
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("first Wait() error = %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := limiter.Wait(ctx); err == nil {
			t.Error("Wait() with cancelled context returned nil")
		}
	})

	t.Run("deadline shorter than delay", func(t *testing.T) {
		t.Parallel()

		limiter := NewRateLimiter(time.Hour)
		if limiter.Delay() != time.Hour {
			t.Errorf("Delay() = %v, want 1h", limiter.Delay())
		}
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("first Wait() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := limiter.Wait(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
		}
		if ctx.Err() == nil {
			t.Error("Wait() returned before the context was done")
		}
	})
}
