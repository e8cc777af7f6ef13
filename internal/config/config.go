package config

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/multicrawler/internal/model"
)

// Default configuration values.
const (
	// DefaultListenAddress is where the control API listens.
	// Port 4567 matches the port the crawler dashboard has always used.
	DefaultListenAddress = ":4567"

	// DefaultThreads is the worker pool size of a crawl.
	DefaultThreads = 4

	// DefaultMaxDepth follows links two hops away from the seed.
	DefaultMaxDepth = 2

	// DefaultDelay is the per-task delay before each fetch.
	DefaultDelay time.Duration = 0

	// DefaultTimeout is the per-fetch timeout.
	DefaultTimeout = time.Duration(model.DefaultTimeoutMillis) * time.Millisecond

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = model.DefaultUserAgent

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 10_000_000

	// DefaultLogFormat is logfmt-style text.
	DefaultLogFormat = "text"

	// AppName is the application name used for XDG directory paths.
	AppName = "multicrawler"
)

// Config holds all configuration options for multicrawler.
// It is populated from defaults, then the config file, then the PORT
// environment variable, then CLI flags, and passed down explicitly.
//
// A single flat struct keeps the handful of options easy to override from
// flags and files alike.
type Config struct {
	// ListenAddress is the "host:port" the control API binds to.
	ListenAddress string

	// DBDir is the directory of the SQLite result store.
	// Defaults to XDG data directory (~/.local/share/multicrawler on Linux).
	DBDir string

	// DisableDB turns persistence off; results then live only in memory.
	DisableDB bool

	// LogFormat is "text" or "json".
	LogFormat string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format that
	// every fetch is routed through.
	ProxyAddress string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Threads is the default worker pool size for crawls started from the CLI.
	Threads int

	// MaxDepth is the default link-following depth.
	MaxDepth int

	// Delay is the default per-task delay before each fetch.
	Delay time.Duration

	// Timeout is the default per-fetch timeout.
	Timeout time.Duration

	// UserAgent is the default User-Agent header.
	UserAgent string

	// Filter is the default regular expression discovered links must fully match.
	Filter string

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// JSONReport selects JSON output for crawl and results reports.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output for crawl and results reports.
	MarkdownReport bool

	// ReportFile is the output file path for reports. Empty means stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		DBDir:         XDGDataDir(),
		LogFormat:     DefaultLogFormat,
		MaxBodySize:   DefaultMaxBodySize,
		Threads:       DefaultThreads,
		MaxDepth:      DefaultMaxDepth,
		Delay:         DefaultDelay,
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for multicrawler.
// On Linux: ~/.local/share/multicrawler
// On macOS: ~/Library/Application Support/multicrawler
// On Windows: %LOCALAPPDATA%\multicrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for multicrawler.
// On Linux: ~/.config/multicrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyEnv applies environment overrides. PORT replaces the port of
// ListenAddress and keeps its host.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	port := strings.TrimSpace(getenv("PORT"))
	if port == "" {
		return nil
	}
	if !isPort(port) {
		return ErrInvalidPort
	}

	host := ""
	if h, _, err := net.SplitHostPort(c.ListenAddress); err == nil {
		host = h
	}
	c.ListenAddress = net.JoinHostPort(host, port)
	return nil
}

// CrawlRequest builds a crawl request for seed from the configured defaults.
func (c *Config) CrawlRequest(seed string) model.CrawlRequest {
	return model.CrawlRequest{
		SeedURL:   seed,
		MaxDepth:  c.MaxDepth,
		Threads:   c.Threads,
		Delay:     int(c.Delay.Milliseconds()),
		UserAgent: c.UserAgent,
		Filter:    c.Filter,
		Timeout:   int(c.Timeout.Milliseconds()),
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if _, port, err := net.SplitHostPort(c.ListenAddress); err != nil || !isPort(port) {
		return ErrInvalidListenAddress
	}

	if c.Threads <= 0 {
		return ErrInvalidThreads
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	if c.ProxyAddress != "" {
		if _, _, err := net.SplitHostPort(c.ProxyAddress); err != nil {
			return ErrInvalidProxyAddress
		}
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// isPort reports whether s is a port number in 0-65535.
// Port 0 asks the kernel for a free port.
func isPort(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= 65535
}
