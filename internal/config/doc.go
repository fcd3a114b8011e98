// Package config provides configuration structures and utilities for linkaudit.
// It defines the audit options (discovery bounds, timeouts, status probing,
// link filters, report format) and the optional YAML file with per-site
// overrides.
package config
