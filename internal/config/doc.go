// Package config provides configuration structures and utilities for altscan.
// It defines the crawl settings (politeness, limits, relay and robots policy),
// report output preferences, and the optional YAML file with per-site overrides.
package config
