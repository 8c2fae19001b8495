// Package config provides configuration structures and utilities for ideagraph.
// It defines request identity settings, crawl budgets, storage locations and
// report preferences, plus the optional .ideagraph YAML file with per-locale
// overrides.
package config
