// Package config provides configuration structures and utilities for
// multicrawler: defaults, XDG paths, YAML/TOML config files, the PORT
// environment override and validation.
package config
