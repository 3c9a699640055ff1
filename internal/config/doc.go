// Package config provides configuration structures and utilities for seosmoke.
// It defines the options for fetching target pages, selecting checks,
// persisting run history and choosing the report format.
package config
