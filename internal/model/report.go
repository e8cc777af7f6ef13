package model

import (
	"slices"
	"time"
)

// CrawlReport bundles everything a report writer renders for one crawl.
type CrawlReport struct {
	// Seed is the crawl origin. It is empty for reports built from the
	// persistent store, which may hold several crawls.
	Seed string `json:"seed,omitempty"`

	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time `json:"generatedAt"`

	// Status is the orchestrator snapshot taken when the crawl ended.
	// It is nil for store exports.
	Status *Status `json:"status,omitempty"`

	// Statistics summarizes Results.
	Statistics Statistics `json:"statistics"`

	// Results are the collected results in the order they were produced.
	Results []CrawlResult `json:"results"`
}

// NewCrawlReport builds a report and computes its statistics from results.
func NewCrawlReport(seed string, status *Status, results []CrawlResult, now time.Time) *CrawlReport {
	if results == nil {
		results = []CrawlResult{}
	}
	return &CrawlReport{
		Seed:        seed,
		GeneratedAt: now,
		Status:      status,
		Statistics:  ComputeStatistics(results),
		Results:     results,
	}
}

// ComputeStatistics derives the same aggregates the result store reports.
func ComputeStatistics(results []CrawlResult) Statistics {
	var stats Statistics
	if len(results) == 0 {
		return stats
	}

	var totalSize int64
	oldest, newest := results[0].Timestamp, results[0].Timestamp
	for _, r := range results {
		totalSize += r.ContentSize
		if r.IsSuccess() {
			stats.SuccessCount++
		}
		oldest = min(oldest, r.Timestamp)
		newest = max(newest, r.Timestamp)
	}
	stats.TotalPages = len(results)
	stats.AverageSize = float64(totalSize) / float64(len(results))
	stats.TotalTime = newest - oldest
	return stats
}

// StatusCount is the number of results sharing one status code.
type StatusCount struct {
	StatusCode int
	Count      int
}

// StatusBreakdown counts results per status code, ordered by status code.
func (r *CrawlReport) StatusBreakdown() []StatusCount {
	counts := make(map[int]int)
	for _, res := range r.Results {
		counts[res.StatusCode]++
	}

	breakdown := make([]StatusCount, 0, len(counts))
	for code, n := range counts {
		breakdown = append(breakdown, StatusCount{StatusCode: code, Count: n})
	}
	slices.SortFunc(breakdown, func(a, b StatusCount) int {
		return a.StatusCode - b.StatusCode
	})
	return breakdown
}

// Failures returns the results that carry the synthetic fetch-error status.
func (r *CrawlReport) Failures() []CrawlResult {
	var failed []CrawlResult
	for _, res := range r.Results {
		if res.StatusCode == StatusFetchError && res.Title == ErrorTitle {
			failed = append(failed, res)
		}
	}
	return failed
}
