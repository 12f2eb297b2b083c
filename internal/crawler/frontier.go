package crawler

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// crawlTarget is the seed of a crawl and the origin it must stay within.
type crawlTarget struct {
	seed   *url.URL
	origin string
}

// newCrawlTarget validates seed and derives its origin.
func newCrawlTarget(seed string) (*crawlTarget, error) {
	u, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeedInvalid, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrSeedInvalid, seed)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return &crawlTarget{seed: u, origin: originOf(u)}, nil
}

// sameOrigin reports whether rawURL shares the seed's scheme, host and port.
func (t *crawlTarget) sameOrigin(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return originOf(u) == t.origin
}

// originOf returns scheme://host[:port] in lowercase, omitting the default
// port of the scheme.
func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if isDefaultPort(scheme, port) {
		port = ""
	}
	if port != "" {
		return scheme + "://" + net.JoinHostPort(host, port)
	}
	if strings.Contains(host, ":") {
		return scheme + "://[" + host + "]"
	}
	return scheme + "://" + host
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// normalizeURL normalizes a URL for deduplication: lowercase scheme and
// host, no default port, "/" for an empty path and no fragment.
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	switch {
	case port != "" && !isDefaultPort(u.Scheme, port):
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// frontier is the FIFO queue of URLs pending a visit. Duplicates are
// allowed in the queue and filtered by the visited set at dequeue time.
type frontier struct {
	items []string
}

func newFrontier(seed string) *frontier {
	return &frontier{items: []string{seed}}
}

func (f *frontier) push(u string) {
	f.items = append(f.items, u)
}

func (f *frontier) pop() (string, bool) {
	if len(f.items) == 0 {
		return "", false
	}
	next := f.items[0]
	f.items[0] = ""
	f.items = f.items[1:]
	return next, true
}

func (f *frontier) len() int {
	return len(f.items)
}

// visitedSet holds the normalized URLs already dequeued. It only grows.
type visitedSet map[string]struct{}

func (v visitedSet) contains(pageURL string) bool {
	_, ok := v[normalizeURL(pageURL)]
	return ok
}

func (v visitedSet) add(pageURL string) {
	v[normalizeURL(pageURL)] = struct{}{}
}
