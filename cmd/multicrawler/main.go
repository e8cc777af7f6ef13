// Package main provides the entry point for the multicrawler CLI.
//
// multicrawler is a multi-threaded web crawler with a control API for
// starting, pausing, resuming and terminating crawls.
//
// Usage:
//
//	multicrawler serve
//	multicrawler crawl <seed-url>
//
// See --help for all available options.
package main

// main is the entry point for multicrawler.
func main() {
	Execute()
}
