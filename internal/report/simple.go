package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/multicrawler/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Output is plain ASCII so it can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether empty sections are printed.
	showEmpty bool

	// verbose lists every result instead of only failures.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables a per-result listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeStatistics(&sb, report)
	w.writeStatusCodes(&sb, report)
	w.writeFailures(&sb, report)
	if w.verbose {
		w.writeResults(&sb, report)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// writeSection writes a dashed section title.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        MULTICRAWLER REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if report.Seed != "" {
		fmt.Fprintf(sb, "Seed URL:   %s\n", report.Seed)
	}
	fmt.Fprintf(sb, "Generated:  %s\n", report.GeneratedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Status:     %s\n", statusText(report))
	if s := report.Status; s != nil {
		fmt.Fprintf(sb, "Tasks:      %s / %s (%d%%)\n",
			commaInt(s.CompletedTasks), commaInt(s.TotalTasks), s.ProgressPercentage())
		fmt.Fprintf(sb, "Duration:   %s\n", s.FormattedDuration())
	}
	sb.WriteString("\n")
}

// writeStatistics writes the aggregate statistics.
func (w *SimpleWriter) writeStatistics(sb *strings.Builder, report *model.CrawlReport) {
	stats := report.Statistics

	w.writeSection(sb, "STATISTICS")
	fmt.Fprintf(sb, "  Total pages:   %s\n", commaInt(stats.TotalPages))
	fmt.Fprintf(sb, "  Successful:    %s (%s)\n", commaInt(stats.SuccessCount), successRate(stats))
	fmt.Fprintf(sb, "  Average size:  %s\n", sizeLabel(int64(stats.AverageSize)))
	fmt.Fprintf(sb, "  Time span:     %s\n", millisLabel(stats.TotalTime))
	sb.WriteString("\n")
}

// writeStatusCodes writes one line per status code.
func (w *SimpleWriter) writeStatusCodes(sb *strings.Builder, report *model.CrawlReport) {
	breakdown := report.StatusBreakdown()
	if len(breakdown) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "STATUS CODES")
	if len(breakdown) == 0 {
		sb.WriteString("  (none)\n\n")
		return
	}
	for _, sc := range breakdown {
		fmt.Fprintf(sb, "  %3d: %s\n", sc.StatusCode, commaInt(sc.Count))
	}
	sb.WriteString("\n")
}

// writeFailures lists URLs that could not be fetched.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	failed := report.Failures()
	if len(failed) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, fmt.Sprintf("FAILURES (%d)", len(failed)))
	if len(failed) == 0 {
		sb.WriteString("  (none)\n\n")
		return
	}
	for _, f := range failed {
		fmt.Fprintf(sb, "  [!] %s\n", f.URL)
		if f.Referrer != "" {
			fmt.Fprintf(sb, "      from: %s\n", f.Referrer)
		}
	}
	sb.WriteString("\n")
}

// writeResults lists every result.
func (w *SimpleWriter) writeResults(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Results) == 0 && !w.showEmpty {
		return
	}

	w.writeSection(sb, "RESULTS")
	if len(report.Results) == 0 {
		sb.WriteString("  (none)\n\n")
		return
	}
	for _, r := range report.Results {
		fmt.Fprintf(sb, "  %3d  %-9s %7s  %s\n",
			r.StatusCode, sizeLabel(r.ContentSize), millisLabel(r.LoadTime), r.URL)
		if r.Title != "" {
			fmt.Fprintf(sb, "       %s\n", truncateString(r.Title, 60))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by MultiCrawler\n")
	sb.WriteString("https://github.com/nao1215/multicrawler\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
