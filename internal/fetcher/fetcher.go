package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Default values for HTTPFetcher.
const (
	// DefaultTimeout bounds a single request, body included.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxBodySize caps the decoded body at 5MB.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	// DefaultUserAgent identifies the auditor to the sites it visits.
	DefaultUserAgent = "altscan/1.0 (+https://github.com/nao1215/altscan)"
)

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Document, error)
}

// Document is a successfully fetched page.
type Document struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL the content was actually served from, after
	// redirects (or as reported by the relay). Relative links resolve
	// against it.
	FinalURL string

	// StatusCode is the origin's HTTP status code.
	StatusCode int

	// ContentType is the origin's Content-Type header, when known.
	ContentType string

	// Body is the response body as UTF-8 text.
	Body string
}

// HTTPFetcher implements Fetcher with net/http.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	headers      map[string]string
	timeout      time.Duration
	maxBodySize  int64
	relayBaseURL string
	proxyAddress string
	logger       *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = timeout
	}
}

// WithMaxBodySize sets the maximum decoded body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithRelay routes every request through the relay at baseURL.
// An empty baseURL means direct fetching.
func WithRelay(baseURL string) Option {
	return func(f *HTTPFetcher) {
		f.relayBaseURL = baseURL
	}
}

// WithProxy routes connections through a SOCKS5 or HTTP proxy.
func WithProxy(address string) Option {
	return func(f *HTTPFetcher) {
		f.proxyAddress = address
	}
}

// WithHeaders adds extra request headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithHTTPClient replaces the HTTP client. Proxy and header options are
// ignored when a client is supplied.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates an HTTPFetcher. It fails only for an invalid proxy address or
// relay URL.
func New(opts ...Option) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string),
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.relayBaseURL != "" {
		u, err := url.Parse(f.relayBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid relay url %q", f.relayBaseURL)
		}
	}

	if f.client == nil {
		transport, err := newTransport(f.proxyAddress)
		if err != nil {
			return nil, err
		}
		f.client = newHTTPClient(transport, f.headers)
	}

	return f, nil
}

// Relay returns the relay base URL, empty for direct fetching.
func (f *HTTPFetcher) Relay() string {
	return f.relayBaseURL
}

// Fetch performs one GET request for rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() || target.Host == "" {
		if err == nil {
			err = errors.New("url is not absolute")
		}
		return nil, &NetworkError{URL: rawURL, Err: err}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	if f.relayBaseURL != "" {
		return f.fetchViaRelay(ctx, rawURL)
	}
	return f.fetchDirect(ctx, rawURL)
}

func (f *HTTPFetcher) fetchDirect(ctx context.Context, rawURL string) (*Document, error) {
	resp, err := f.do(ctx, rawURL)
	if err != nil {
		var redirectErr *RedirectError
		if errors.As(err, &redirectErr) {
			return nil, redirectErr
		}
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp)
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	raw, err := readBody(resp, f.maxBodySize)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	contentType := resp.Header.Get("Content-Type")
	f.logger.Debug("fetched page",
		"url", rawURL,
		"final_url", finalURL,
		"status", resp.StatusCode,
		"bytes", len(raw))

	return &Document{
		URL:         rawURL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        decodeText(raw, contentType),
	}, nil
}

func (f *HTTPFetcher) fetchViaRelay(ctx context.Context, rawURL string) (*Document, error) {
	requestURL, err := relayURL(f.relayBaseURL, rawURL)
	if err != nil {
		return nil, &RelayError{URL: rawURL, Relay: f.relayBaseURL, Err: err}
	}

	// Redirects of the relay itself are not hops of the target site.
	ctx = WithRedirectGuard(ctx, nil)

	resp, err := f.do(ctx, requestURL)
	if err != nil {
		return nil, &RelayError{
			URL:   rawURL,
			Relay: f.relayBaseURL,
			Err:   &NetworkError{URL: requestURL, Err: err},
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp)
		return nil, &RelayError{URL: rawURL, Relay: f.relayBaseURL, StatusCode: resp.StatusCode}
	}

	raw, err := readBody(resp, f.maxBodySize)
	if err != nil {
		return nil, &RelayError{
			URL:   rawURL,
			Relay: f.relayBaseURL,
			Err:   &NetworkError{URL: requestURL, Err: err},
		}
	}

	contentType := resp.Header.Get("Content-Type")
	env, ok, err := unwrapEnvelope(raw, contentType)
	if err != nil {
		return nil, &RelayError{
			URL:   rawURL,
			Relay: f.relayBaseURL,
			Err:   fmt.Errorf("decode envelope: %w", err),
		}
	}

	if !ok {
		f.logger.Debug("fetched page via relay", "url", rawURL, "relay", f.relayBaseURL, "bytes", len(raw))
		return &Document{
			URL:         rawURL,
			FinalURL:    rawURL,
			StatusCode:  resp.StatusCode,
			ContentType: contentType,
			Body:        decodeText(raw, contentType),
		}, nil
	}

	statusCode := env.Status.HTTPCode
	if statusCode != 0 && (statusCode < 200 || statusCode > 299) {
		return nil, &HTTPError{URL: rawURL, StatusCode: statusCode}
	}
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	finalURL := rawURL
	if env.Status.URL != "" {
		if u, err := url.Parse(env.Status.URL); err == nil && u.IsAbs() {
			finalURL = env.Status.URL
		}
	}

	f.logger.Debug("fetched page via relay envelope",
		"url", rawURL,
		"final_url", finalURL,
		"relay", f.relayBaseURL,
		"status", statusCode)

	return &Document{
		URL:         rawURL,
		FinalURL:    finalURL,
		StatusCode:  statusCode,
		ContentType: env.Status.ContentType,
		Body:        *env.Contents,
	}, nil
}

func (f *HTTPFetcher) do(ctx context.Context, requestURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
