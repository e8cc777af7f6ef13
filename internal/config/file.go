package config

import (
	"fmt"
	"time"
)

// File represents the structure of a .multicrawler.yaml or
// .multicrawler.toml configuration file. Every field is optional; unset
// fields leave the corresponding Config value untouched.
type File struct {
	// Listen is the control API address, e.g. ":4567".
	Listen string `yaml:"listen,omitempty" toml:"listen,omitempty"`

	// DBDir is the directory of the SQLite result store.
	DBDir string `yaml:"db_dir,omitempty" toml:"db_dir,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format,omitempty" toml:"log_format,omitempty"`

	// Verbose enables debug logging.
	Verbose *bool `yaml:"verbose,omitempty" toml:"verbose,omitempty"`

	// Proxy is an optional SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty" toml:"proxy,omitempty"`

	// MaxBodySize is the response body limit in bytes.
	MaxBodySize int64 `yaml:"max_body_size,omitempty" toml:"max_body_size,omitempty"`

	// Crawl holds the defaults of crawls started from the CLI.
	Crawl CrawlDefaults `yaml:"crawl,omitempty" toml:"crawl,omitempty"`
}

// CrawlDefaults is the crawl section of the configuration file.
type CrawlDefaults struct {
	Threads int `yaml:"threads,omitempty" toml:"threads,omitempty"`

	// MaxDepth is a pointer because 0 is a meaningful depth.
	MaxDepth *int `yaml:"max_depth,omitempty" toml:"max_depth,omitempty"`

	// Delay and Timeout are Go duration strings such as "500ms" or "10s".
	Delay   string `yaml:"delay,omitempty" toml:"delay,omitempty"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`

	UserAgent string `yaml:"user_agent,omitempty" toml:"user_agent,omitempty"`
	Filter    string `yaml:"filter,omitempty" toml:"filter,omitempty"`
}

// Apply copies every field set in the file onto cfg.
func (f *File) Apply(cfg *Config) error {
	if f.Listen != "" {
		cfg.ListenAddress = f.Listen
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}
	if f.LogFormat != "" {
		cfg.LogFormat = f.LogFormat
	}
	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if f.MaxBodySize != 0 {
		cfg.MaxBodySize = f.MaxBodySize
	}

	c := f.Crawl
	if c.Threads != 0 {
		cfg.Threads = c.Threads
	}
	if c.MaxDepth != nil {
		cfg.MaxDepth = *c.MaxDepth
	}
	if c.Delay != "" {
		d, err := time.ParseDuration(c.Delay)
		if err != nil {
			return fmt.Errorf("crawl.delay: %w", err)
		}
		cfg.Delay = d
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("crawl.timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	if c.Filter != "" {
		cfg.Filter = c.Filter
	}
	return nil
}
