// Package config provides configuration structures and utilities for irsyad.
// It defines crawl parameters, persistence paths, report preferences, and the
// optional YAML site file that describes the listing site and its selectors.
package config
