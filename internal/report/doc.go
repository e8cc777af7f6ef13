// Package report renders crawl reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text output for terminal display
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: Markdown with a mermaid status-code chart for sharing
//
// Report data lives in model.CrawlReport; writers only format it.
// Writers implement the Writer interface and can be combined with MultiWriter.
package report
