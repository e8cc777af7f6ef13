package model

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Defaults applied to a CrawlRequest by WithDefaults.
const (
	// DefaultUserAgent is sent when the caller leaves the user agent blank.
	DefaultUserAgent = "MultiCrawlerBot/1.0"

	// DefaultTimeoutMillis is the per-fetch timeout used when the caller
	// passes a non-positive timeout.
	DefaultTimeoutMillis = 10000
)

var (
	// ErrInvalidSeedURL is returned when the seed is not an absolute http(s) URL.
	ErrInvalidSeedURL = errors.New("invalid seed URL: must be an absolute http or https URL")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidWorkerCount is returned when the thread count is not positive.
	ErrInvalidWorkerCount = errors.New("invalid worker count: must be positive")

	// ErrInvalidDelay is returned when the per-task delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidFilter is returned when the URL filter is not a valid regular expression.
	ErrInvalidFilter = errors.New("invalid URL filter")
)

// CrawlRequest is the immutable configuration of one crawl.
// Field names on the wire match the control API's camelCase JSON.
type CrawlRequest struct {
	// SeedURL is the crawl origin.
	SeedURL string `json:"seedUrl"`

	// MaxDepth is the link-following depth ceiling.
	// 0 fetches only the seed.
	MaxDepth int `json:"maxDepth"`

	// Threads is the worker pool size.
	Threads int `json:"threads"`

	// Delay is the per-task pre-fetch suspension in milliseconds.
	Delay int `json:"delay"`

	// UserAgent is sent with every fetch.
	UserAgent string `json:"userAgent"`

	// Filter is an optional regular expression that a candidate link's
	// absolute URL must fully match.
	Filter string `json:"filter,omitempty"`

	// Timeout is the per-fetch timeout in milliseconds.
	Timeout int `json:"timeout"`
}

// WithDefaults returns a copy of the request with a default user agent and
// timeout applied where the caller left them unset.
func (r CrawlRequest) WithDefaults() CrawlRequest {
	if strings.TrimSpace(r.UserAgent) == "" {
		r.UserAgent = DefaultUserAgent
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeoutMillis
	}
	r.SeedURL = strings.TrimSpace(r.SeedURL)
	return r
}

// Validate reports the first structural problem with the request.
// It does not apply defaults; call WithDefaults first.
func (r CrawlRequest) Validate() error {
	u, err := url.Parse(r.SeedURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidSeedURL
	}
	if r.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if r.Threads <= 0 {
		return ErrInvalidWorkerCount
	}
	if r.Delay < 0 {
		return ErrInvalidDelay
	}
	if _, err := r.CompileFilter(); err != nil {
		return err
	}
	return nil
}

// CompileFilter compiles the URL filter anchored at both ends so that it
// must match the whole URL. A blank filter yields a nil pattern.
func (r CrawlRequest) CompileFilter() (*regexp.Regexp, error) {
	if strings.TrimSpace(r.Filter) == "" {
		return nil, nil
	}
	re, err := regexp.Compile(`^(?:` + r.Filter + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidFilter, r.Filter, err)
	}
	return re, nil
}

// DelayDuration returns Delay as a time.Duration.
func (r CrawlRequest) DelayDuration() time.Duration {
	return time.Duration(r.Delay) * time.Millisecond
}

// TimeoutDuration returns Timeout as a time.Duration.
func (r CrawlRequest) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Millisecond
}
