// Package main provides the entry point for the irsyad CLI.
//
// irsyad crawls the Irsyad Hukum listing of the Federal Territories Mufti
// office, extracts question and answer records from every article, and keeps
// them in a JSON dataset that survives interruptions.
//
// Usage:
//
//	irsyad crawl
//	irsyad crawl --no-resume --max-pages 5
//	irsyad export --csv articles.csv
//
// See --help for all available options.
package main

// main is the entry point for irsyad.
func main() {
	Execute()
}
