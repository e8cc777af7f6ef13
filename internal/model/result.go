package model

import "time"

// Synthetic status codes and titles used for results that did not come
// from a completed network fetch.
const (
	// StatusRevisit marks a URL already visited in the active session.
	StatusRevisit = 304

	// StatusFetchError marks a fetch or parse failure.
	StatusFetchError = 500

	// ErrorTitle is the title of a fetch-failure result.
	ErrorTitle = "Error processing URL"

	// RevisitedPrefix is prepended to the title of a page that was fetched
	// again outside an active session.
	RevisitedPrefix = "[REVISITED] "
)

// CrawlResult is the outcome of one executed task.
// Times are Unix milliseconds and sizes are bytes, matching the wire format.
type CrawlResult struct {
	URL         string `json:"url"`
	StatusCode  int    `json:"statusCode"`
	ContentSize int64  `json:"contentSize"`
	Referrer    string `json:"referrer"`
	// ContentType is empty when the response carried none or the fetch failed.
	ContentType string `json:"contentType,omitempty"`
	// Title is empty for non-HTML content.
	Title     string `json:"title,omitempty"`
	LoadTime  int64  `json:"loadTime"`
	Timestamp int64  `json:"timestamp"`
}

// IsSuccess reports whether the result carries a 2xx status.
func (r CrawlResult) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Time returns Timestamp as a time.Time.
func (r CrawlResult) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Statistics summarizes the persisted results.
type Statistics struct {
	TotalPages   int     `json:"totalPages"`
	SuccessCount int     `json:"successCount"`
	AverageSize  float64 `json:"averageSize"`
	// TotalTime is the span in milliseconds between the oldest and newest result.
	TotalTime int64 `json:"totalTime"`
}
