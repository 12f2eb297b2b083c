package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 20 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 20*time.Second {
			t.Errorf("expected Timeout to be 20s, got %v", cfg.Timeout)
		}
	})

	t.Run("default CrawlDelay is 500ms", func(t *testing.T) {
		t.Parallel()
		if cfg.CrawlDelay != 500*time.Millisecond {
			t.Errorf("expected CrawlDelay to be 500ms, got %v", cfg.CrawlDelay)
		}
	})

	t.Run("default MaxPages is unlimited", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 0 {
			t.Errorf("expected MaxPages to be 0, got %d", cfg.MaxPages)
		}
	})

	t.Run("robots are respected and fail open by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.RespectRobots {
			t.Error("expected RespectRobots to be true")
		}
		if cfg.RobotsFallback != RobotsFallbackAllow {
			t.Errorf("expected RobotsFallback %q, got %q", RobotsFallbackAllow, cfg.RobotsFallback)
		}
	})

	t.Run("relay is disabled by default", func(t *testing.T) {
		t.Parallel()
		if cfg.RelayBaseURL != "" {
			t.Errorf("expected empty RelayBaseURL, got %q", cfg.RelayBaseURL)
		}
	})

	t.Run("images are not deduplicated by default", func(t *testing.T) {
		t.Parallel()
		if cfg.DedupImages {
			t.Error("expected DedupImages to be false")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"empty targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, ErrConflictingReportFormats},
		{"negative delay", func(c *Config) { c.CrawlDelay = -time.Millisecond }, ErrInvalidCrawlDelay},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative max pages", func(c *Config) { c.MaxPages = -1 }, ErrInvalidMaxPages},
		{"unknown robots fallback", func(c *Config) { c.RobotsFallback = "maybe" }, ErrInvalidRobotsFallback},
		{"relative relay", func(c *Config) { c.RelayBaseURL = "/get" }, ErrInvalidRelayURL},
		{"ftp relay", func(c *Config) { c.RelayBaseURL = "ftp://relay.example.com" }, ErrInvalidRelayURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("deny_all fallback and https relay are valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.RobotsFallback = RobotsFallbackDenyAll
		cfg.RelayBaseURL = "https://api.allorigins.win/get"
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestFileGetSiteConfig tests merging of defaults and per-site overrides.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	delay := 2 * time.Second
	noRobots := false
	file := &File{
		Defaults: SiteConfig{
			UserAgent: "default-agent",
			MaxPages:  10,
			Headers:   map[string]string{"Accept-Language": "en"},
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				CrawlDelay: &delay,
				Headers:    map[string]string{"X-Audit": "1"},
			},
			"https://secure.example.org": {
				RelayBaseURL:  "https://relay.example.net/get",
				RespectRobots: &noRobots,
				MaxPages:      3,
			},
		},
	}

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()
		got := file.GetSiteConfig("https://unknown.example/")
		if got.UserAgent != "default-agent" || got.MaxPages != 10 {
			t.Errorf("expected defaults, got %+v", got)
		}
	})

	t.Run("matches by host and merges headers", func(t *testing.T) {
		t.Parallel()
		got := file.GetSiteConfig("https://example.com/page")
		if got.CrawlDelay == nil || *got.CrawlDelay != 2*time.Second {
			t.Errorf("expected crawl delay override, got %v", got.CrawlDelay)
		}
		if got.Headers["Accept-Language"] != "en" || got.Headers["X-Audit"] != "1" {
			t.Errorf("expected merged headers, got %v", got.Headers)
		}
		if len(file.Defaults.Headers) != 1 {
			t.Error("defaults headers must not be modified by merge")
		}
	})

	t.Run("matches by origin", func(t *testing.T) {
		t.Parallel()
		got := file.GetSiteConfig("https://secure.example.org/a/b")
		if got.RelayBaseURL != "https://relay.example.net/get" {
			t.Errorf("expected relay override, got %q", got.RelayBaseURL)
		}
		if got.RespectRobots == nil || *got.RespectRobots {
			t.Error("expected robots override to false")
		}
		if got.MaxPages != 3 {
			t.Errorf("expected max pages 3, got %d", got.MaxPages)
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()
		empty := &File{}
		got := empty.GetSiteConfig("https://example.com")
		if got.UserAgent != "" {
			t.Errorf("expected zero config, got %+v", got)
		}
	})
}

// TestConfigForTarget tests applying site overrides to a copy of the config.
func TestConfigForTarget(t *testing.T) {
	t.Parallel()

	delay := 3 * time.Second
	cfg := NewConfig()
	cfg.Targets = []string{"https://a.example", "https://b.example"}
	cfg.SiteConfigs = &File{
		Sites: map[string]SiteConfig{
			"b.example": {CrawlDelay: &delay, RobotsFallback: RobotsFallbackDenyAll},
		},
	}

	a := cfg.ForTarget("https://a.example")
	if a.CrawlDelay != DefaultCrawlDelay {
		t.Errorf("expected default delay for a.example, got %v", a.CrawlDelay)
	}
	if len(a.Targets) != 1 || a.Targets[0] != "https://a.example" {
		t.Errorf("expected single target, got %v", a.Targets)
	}

	b := cfg.ForTarget("https://b.example")
	if b.CrawlDelay != 3*time.Second {
		t.Errorf("expected 3s delay for b.example, got %v", b.CrawlDelay)
	}
	if b.RobotsFallback != RobotsFallbackDenyAll {
		t.Errorf("expected deny_all fallback, got %q", b.RobotsFallback)
	}
	if len(cfg.Targets) != 2 {
		t.Error("ForTarget must not modify the original config")
	}
}

// TestConfigForTargetPatternsAndHeaders tests that site patterns replace the
// global ones and that headers are merged into a fresh map.
func TestConfigForTargetPatternsAndHeaders(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.IgnorePatterns = []string{"/tmp/*"}
	cfg.Headers = map[string]string{"X-Global": "1"}
	cfg.SiteConfigs = &File{
		Sites: map[string]SiteConfig{
			"b.example": {
				IgnorePatterns: []string{"/admin/*"},
				FollowPatterns: []string{"/blog/*"},
				Headers:        map[string]string{"Accept-Language": "ro"},
			},
		},
	}

	a := cfg.ForTarget("https://a.example")
	if len(a.IgnorePatterns) != 1 || a.IgnorePatterns[0] != "/tmp/*" {
		t.Errorf("expected global ignore patterns, got %v", a.IgnorePatterns)
	}
	if a.Headers["X-Global"] != "1" {
		t.Errorf("expected global header, got %v", a.Headers)
	}

	b := cfg.ForTarget("https://b.example")
	if len(b.IgnorePatterns) != 1 || b.IgnorePatterns[0] != "/admin/*" {
		t.Errorf("expected site ignore patterns, got %v", b.IgnorePatterns)
	}
	if len(b.FollowPatterns) != 1 || b.FollowPatterns[0] != "/blog/*" {
		t.Errorf("expected site follow patterns, got %v", b.FollowPatterns)
	}
	if b.Headers["X-Global"] != "1" || b.Headers["Accept-Language"] != "ro" {
		t.Errorf("expected merged headers, got %v", b.Headers)
	}

	b.Headers["X-Extra"] = "2"
	if _, ok := cfg.Headers["X-Extra"]; ok {
		t.Error("ForTarget must not share the header map")
	}

	c := NewConfig()
	c.Headers = map[string]string{"X-Global": "1"}
	d := c.ForTarget("https://a.example")
	d.Headers["X-Other"] = "3"
	if _, ok := c.Headers["X-Other"]; ok {
		t.Error("ForTarget without site configs must not share the header map")
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.altscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".altscan")
		content := `defaults:
  userAgent: "audit-bot/2.0"
  crawlDelay: 750ms
sites:
  example.com:
    maxPages: 25
    robotsFallback: deny_all
    respectRobots: true
    relay: "https://api.allorigins.win/get"
    headers:
      Accept-Language: "ro"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.UserAgent != "audit-bot/2.0" {
			t.Errorf("expected default user agent, got %q", cfg.Defaults.UserAgent)
		}
		if cfg.Defaults.CrawlDelay == nil || *cfg.Defaults.CrawlDelay != 750*time.Millisecond {
			t.Errorf("expected default crawl delay 750ms, got %v", cfg.Defaults.CrawlDelay)
		}

		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.MaxPages != 25 {
			t.Errorf("expected max pages 25, got %d", site.MaxPages)
		}
		if site.RobotsFallback != RobotsFallbackDenyAll {
			t.Errorf("expected deny_all, got %q", site.RobotsFallback)
		}
		if site.RespectRobots == nil || !*site.RespectRobots {
			t.Error("expected respectRobots true")
		}
		if site.Headers["Accept-Language"] != "ro" {
			t.Errorf("expected Accept-Language header, got %v", site.Headers)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".altscan")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".altscan")
		if err := os.WriteFile(configPath, []byte("defaults:\n  maxPages: 5\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestXDGConfigDir tests the XDG config directory.
func TestXDGConfigDir(t *testing.T) {
	t.Parallel()

	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("expected config dir to end with %q, got %q", AppName, dir)
	}
}
