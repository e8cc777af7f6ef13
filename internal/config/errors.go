package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.ApplyEnv() so
// that callers can use errors.Is() for programmatic handling.
var (
	// ErrInvalidListenAddress is returned when the listen address is not "host:port".
	ErrInvalidListenAddress = errors.New("invalid listen address: must be host:port")

	// ErrInvalidPort is returned when the PORT environment variable is not a port number.
	ErrInvalidPort = errors.New("invalid PORT environment variable: must be a number between 0 and 65535")

	// ErrInvalidThreads is returned when the thread count is not positive.
	ErrInvalidThreads = errors.New("invalid threads: must be positive")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidLogFormat is returned for log formats other than text and json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
