// Package robots derives an allow/deny policy from a site's robots.txt.
//
// A Policy is built once per crawl from {origin}/robots.txt and is
// read-only afterwards. Allowed is a pure decision over a URL and a user
// agent.
//
// When robots.txt cannot be obtained (network failure, 5xx, relay failure
// or unparsable content) the policy is degraded and follows the configured
// Fallback: FallbackAllow permits everything, FallbackDenyAll permits
// nothing. A 4xx answer means the site publishes no rules and allows
// everything without being degraded.
package robots
