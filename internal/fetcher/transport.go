package fetcher

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains.
const maxRedirects = 10

// newTransport builds the HTTP transport, routing connections through the
// given proxy when proxyAddress is non-empty.
func newTransport(proxyAddress string) (*http.Transport, error) {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// Content-Encoding is negotiated and decoded by readBody so that
		// brotli is supported too.
		DisableCompression: true,
	}

	proxyAddress = strings.TrimSpace(proxyAddress)
	if proxyAddress == "" {
		return transport, nil
	}

	if !strings.Contains(proxyAddress, "://") {
		if !isValidProxyAddress(proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		proxyAddress = "socks5://" + proxyAddress
	}

	u, err := url.Parse(proxyAddress)
	if err != nil || u.Host == "" || !isValidProxyAddress(u.Host) {
		return nil, ErrInvalidProxyAddress
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, ErrInvalidProxyAddress
		}
		transport.DialContext = contextDialer(dialer)
	default:
		return nil, ErrInvalidProxyAddress
	}
	return transport, nil
}

// contextDialer adapts a proxy.Dialer to the DialContext signature. The
// SOCKS5 dialer from x/net supports contexts natively; other dialers are
// raced against the context.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)

		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()

		select {
		case result := <-resultCh:
			return result.conn, result.err
		case <-ctx.Done():
			go func() {
				if result := <-resultCh; result.conn != nil {
					_ = result.conn.Close()
				}
			}()
			return nil, ctx.Err()
		}
	}
}

// isValidProxyAddress checks if the address is in valid host:port format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return portNum >= 1 && portNum <= 65535
}

// newHTTPClient creates the client shared by every fetch of one fetcher.
// Per-site headers are injected by headerInjectingTransport.
func newHTTPClient(transport http.RoundTripper, headers map[string]string) *http.Client {
	if len(headers) > 0 {
		transport = &headerInjectingTransport{base: transport, headers: headers}
	}
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			if guard := redirectGuardFrom(req.Context()); guard != nil {
				if err := guard(req.URL); err != nil {
					return &RedirectError{URL: via[0].URL.String(), Target: req.URL.String(), Err: err}
				}
			}
			return nil
		},
	}
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// custom headers into every request, redirects included.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
