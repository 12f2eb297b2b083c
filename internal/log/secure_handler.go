package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// Request headers a site configuration may inject, plus the ones a relay or
// proxy answers with. Compared case-insensitively.
var sensitiveHeaders = []string{
	"authorization", "proxy-authorization", "cookie", "set-cookie",
	"x-api-key", "x-auth-token", "x-relay-key",
}

// Attribute names that carry secrets whatever their value looks like.
var sensitiveFields = []string{
	"password", "passwd", "secret", "token", "auth",
	"api_key", "apikey", "api-key", "access_token", "refresh_token",
	"private_key", "secret_key", "credential", "credentials",
	"session", "session_id", "sessionid", "sid",
}

// sensitiveKeywords mark a key as sensitive when they appear anywhere in it.
// The bare "key" is left out: it matches "primary_key" or "monkey".
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private",
}

// sensitiveQueryParams are URL query parameters whose values are masked.
var sensitiveQueryParams = []string{
	"key", "apikey", "api_key", "token", "access_token", "secret", "signature", "sig", "password",
}

var sensitiveKeys = newKeySet(sensitiveHeaders, sensitiveFields)

// sensitiveValue matches values that are secrets on their own: JWTs, bearer
// and basic credentials, long opaque keys, AWS access keys, PEM private keys.
var sensitiveValue = regexp.MustCompile("(?:" + strings.Join([]string{
	`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`,
	`(?i)^bearer\s+.+`,
	`(?i)^basic\s+[A-Za-z0-9+/=]+$`,
	`^[a-zA-Z0-9]{32,}$`,
	`^AKIA[0-9A-Z]{16}$`,
	`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`,
}, ")|(?:") + ")")

func newKeySet(groups ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, group := range groups {
		for _, key := range group {
			set[key] = struct{}{}
		}
	}
	return set
}

// SecureHandler wraps an slog.Handler and masks sensitive attributes before
// they reach it. Keys are matched by name, string values by pattern, and
// URLs keep their host and path with only the credentials masked.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler uses slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the wrapped handler handles records at level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle passes a copy of r with redacted attributes to the wrapped handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	clean.AddAttrs(redactAll(attrs)...)
	return h.handler.Handle(ctx, clean)
}

// WithAttrs returns a handler whose preset attributes are already redacted.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{handler: h.handler.WithAttrs(redactAll(attrs))}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func redactAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = redact(a)
	}
	return out
}

// redact returns a with its value masked or scrubbed when sensitive.
// Groups are walked recursively.
func redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redactAll(a.Value.Group())...)}
	}

	key := strings.ToLower(a.Key)
	if _, ok := sensitiveKeys[key]; ok || containsSensitiveKeyword(key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if isSensitiveValue(s) {
		return slog.String(a.Key, MaskValue)
	}
	if scrubbed, changed := scrubURL(s); changed {
		return slog.String(a.Key, scrubbed)
	}
	return a
}

// containsSensitiveKeyword reports whether key contains one of the
// sensitive keywords.
func containsSensitiveKeyword(key string) bool {
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether value looks like a secret on its own.
func isSensitiveValue(value string) bool {
	return sensitiveValue.MatchString(value)
}

// scrubURL masks the password in URL user info and credential-like query
// parameters. It reports whether anything was masked.
func scrubURL(value string) (string, bool) {
	if !strings.Contains(value, "://") {
		return value, false
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return value, false
	}

	changed := false
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), MaskValue)
			changed = true
		}
	}

	if u.RawQuery != "" {
		query := u.Query()
		masked := false
		for name := range query {
			if isSensitiveQueryParam(name) {
				query.Set(name, MaskValue)
				masked = true
			}
		}
		if masked {
			u.RawQuery = query.Encode()
			changed = true
		}
	}

	if !changed {
		return value, false
	}
	out, err := url.PathUnescape(u.String())
	if err != nil {
		return u.String(), true
	}
	return out, true
}

func isSensitiveQueryParam(name string) bool {
	for _, sensitive := range sensitiveQueryParams {
		if strings.EqualFold(name, sensitive) {
			return true
		}
	}
	return false
}

// levelFor maps the verbose switch to a slog level.
func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewSecureLogger returns a redacting logger with human-readable console
// output. Colors are enabled only when w is a terminal. verbose lowers the
// level from Warn to Debug.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(tint.NewHandler(w, &tint.Options{
		Level:      levelFor(verbose),
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	})))
}

// NewSecureJSONLogger returns a redacting logger that writes JSON lines.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFor(verbose),
	})))
}

// isTerminal reports whether w is a terminal file descriptor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
