// Package config provides configuration structures and utilities for arachne.
// It defines crawl limits, scanner keyword sets, per-site request settings
// and report output preferences, and loads them from the .arachne YAML file.
package config
