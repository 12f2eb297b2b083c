// Package fetcher retrieves pages over HTTP, either directly or through a
// CORS-bypass relay.
//
// A fetch performs exactly one outbound request. The response body is
// decompressed (gzip, deflate, br), capped at a configurable size and
// converted to UTF-8. Failures are reported as one of three typed errors:
//
//   - NetworkError: DNS, connection, TLS or timeout failures
//   - HTTPError: the origin answered with a non-2xx status
//   - RelayError: the relay itself failed or returned an undecodable envelope
//
// All three are matchable with errors.As and none of them is fatal to a
// crawl.
//
// # Relay mode
//
// When a relay base URL is configured the target is requested as
// {relay}?url={escaped target}. Relays answer either with the raw page or
// with a JSON envelope in the allorigins format:
//
//	{"contents": "<html>...", "status": {"url": "...", "http_code": 200}}
//
// Both shapes are handled. The envelope's status.url, when present, is
// reported as the final URL so relative links resolve against the page and
// not against the relay.
//
// # Proxies
//
// A proxy address of the form host:port is treated as a SOCKS5 proxy.
// socks5:// and http(s):// URLs select the proxy type explicitly.
package fetcher
