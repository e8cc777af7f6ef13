package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/multicrawler/internal/model"
)

// maxMarkdownRows caps the results table so large crawls stay readable.
const maxMarkdownRows = 500

// MarkdownWriter outputs reports in Markdown format for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStatistics(md, report)
	w.writeStatusCodes(md, report)
	w.writeResults(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("MultiCrawler Report")
	md.PlainText("")

	rows := [][]string{}
	if report.Seed != "" {
		rows = append(rows, []string{"Seed URL", "`" + report.Seed + "`"})
	}
	rows = append(rows,
		[]string{"Generated", report.GeneratedAt.Format(timeLayout)},
		[]string{"Status", statusText(report)},
	)
	if s := report.Status; s != nil {
		rows = append(rows,
			[]string{"Tasks", commaInt(s.CompletedTasks) + " / " + commaInt(s.TotalTasks)},
			[]string{"Duration", s.FormattedDuration()},
		)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if s := report.Status; s != nil && s.State == model.StateTerminated {
		md.Warningf("The crawl was terminated. %d task(s) did not run.", s.PendingTasks)
		md.PlainText("")
	}
}

// writeStatistics writes the aggregate statistics table.
func (w *MarkdownWriter) writeStatistics(md *markdown.Markdown, report *model.CrawlReport) {
	stats := report.Statistics

	md.H2("Statistics")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Pages", commaInt(stats.TotalPages)},
			{"Successful", commaInt(stats.SuccessCount)},
			{"Success Rate", successRate(stats)},
			{"Average Size", sizeLabel(int64(stats.AverageSize))},
			{"Time Span", millisLabel(stats.TotalTime)},
		},
	})
	md.PlainText("")
}

// writeStatusCodes writes the status code distribution as a mermaid pie chart.
func (w *MarkdownWriter) writeStatusCodes(md *markdown.Markdown, report *model.CrawlReport) {
	breakdown := report.StatusBreakdown()
	if len(breakdown) == 0 {
		return
	}

	md.H2("Status Codes")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Status Code Distribution"),
		piechart.WithShowData(true),
	)
	for _, sc := range breakdown {
		chart.LabelAndIntValue(strconv.Itoa(sc.StatusCode), uint64(sc.Count)) //nolint:gosec // counts are non-negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeResults writes one table row per result.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Results")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No pages were crawled.")
		md.PlainText("")
		return
	}

	results := report.Results
	if len(results) > maxMarkdownRows {
		md.Note(fmt.Sprintf("Showing the first %d of %s results.", maxMarkdownRows, commaInt(len(results))))
		md.PlainText("")
		results = results[:maxMarkdownRows]
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			truncateString(r.URL, 60),
			strconv.Itoa(r.StatusCode),
			truncateString(titleOrDash(r.Title), 40),
			titleOrDash(r.ContentType),
			sizeLabel(r.ContentSize),
			millisLabel(r.LoadTime),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Title", "Content Type", "Size", "Load Time"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures lists URLs that could not be fetched.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	failed := report.Failures()
	if len(failed) == 0 {
		if len(report.Results) > 0 {
			md.Tip("Every URL was fetched without error.")
			md.PlainText("")
		}
		return
	}

	md.H2("Failures")
	md.PlainText("")
	md.Cautionf("%d URL(s) could not be fetched.", len(failed))
	md.PlainText("")

	urls := make([]string, len(failed))
	for i, f := range failed {
		urls[i] = f.URL
	}
	md.BulletList(urls...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [MultiCrawler](https://github.com/nao1215/multicrawler)*")
}
