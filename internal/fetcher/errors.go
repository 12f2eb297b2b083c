package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidProxyAddress is returned when the proxy address is neither
// host:port nor a socks5/http(s) URL.
var ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port or socks5://, http:// URL")

// NetworkError reports a transport-level failure: DNS resolution,
// connection refused, TLS handshake or timeout.
type NetworkError struct {
	// URL is the URL that was being fetched.
	URL string
	// Err is the underlying transport error.
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a deadline.
func (e *NetworkError) Timeout() bool {
	var timeout interface{ Timeout() bool }
	if errors.As(e.Err, &timeout) && timeout.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// HTTPError reports a non-2xx response from the origin.
type HTTPError struct {
	// URL is the URL that was being fetched.
	URL string
	// StatusCode is the HTTP status code returned by the origin (or
	// reported by the relay envelope).
	StatusCode int
}

func (e *HTTPError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("http error fetching %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("http error fetching %s: %d %s", e.URL, e.StatusCode, text)
}

// IsClientError reports whether the status is in the 4xx range.
func (e *HTTPError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// RedirectError reports a redirect hop refused by a RedirectGuard.
type RedirectError struct {
	// URL is the URL that was requested.
	URL string
	// Target is the refused redirect destination.
	Target string
	// Err is the guard's reason.
	Err error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect from %s to %s refused: %v", e.URL, e.Target, e.Err)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// RelayError reports a failure of the relay itself, as opposed to the page
// behind it.
type RelayError struct {
	// URL is the target URL the relay was asked to fetch.
	URL string
	// Relay is the relay base URL.
	Relay string
	// StatusCode is the relay's own HTTP status, zero when no response
	// was received.
	StatusCode int
	// Err is the underlying cause, if any.
	Err error
}

func (e *RelayError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("relay %s failed for %s: %v", e.Relay, e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("relay %s failed for %s: status %d", e.Relay, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("relay %s failed for %s", e.Relay, e.URL)
	}
}

func (e *RelayError) Unwrap() error {
	return e.Err
}
