// Package main provides the entry point for the altscan CLI.
//
// altscan crawls a website and reports which images have alternative text
// and which do not.
//
// Usage:
//
//	altscan scan <url>
//	altscan scan --single <url>
//	altscan scan <url> <url> ...
//
// See --help for all available options.
package main

// main is the entry point for altscan.
func main() {
	Execute()
}
