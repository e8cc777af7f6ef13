package report

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/multicrawler/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// timeLayout is used for every timestamp a report prints.
const timeLayout = "2006-01-02 15:04:05 MST"

// stateLabel renders an orchestrator state for display, e.g. "Terminated".
func stateLabel(state model.State) string {
	return cases.Title(language.English).String(string(state))
}

// sizeLabel renders a byte count, e.g. "1.2 kB".
func sizeLabel(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// millisLabel renders a millisecond span, e.g. "1.5s".
func millisLabel(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

// successRate renders successes as a percentage of total.
func successRate(stats model.Statistics) string {
	if stats.TotalPages == 0 {
		return "0%"
	}
	pct := float64(stats.SuccessCount) * 100 / float64(stats.TotalPages)
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// statusText returns the crawl outcome line shared by the text formats.
func statusText(report *model.CrawlReport) string {
	if report.Status == nil {
		return "Stored results"
	}
	label := stateLabel(report.Status.State)
	if report.Status.State == model.StateTerminated {
		return label + " (partial results)"
	}
	return label
}

// titleOrDash returns "-" for empty cells.
func titleOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// commaInt renders an int with thousands separators.
func commaInt(n int) string {
	return humanize.Comma(int64(n))
}
