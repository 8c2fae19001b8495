package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".ideagraph"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile parses the YAML file at path. A missing file yields
// ErrConfigNotFound so callers can tell it apart from a malformed one;
// whether that is fatal depends on whether the user named the file.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // The path comes from the user or FindConfigFile
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrConfigNotFound
	case err != nil:
		return nil, err
	}

	file := &File{}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if file.Locales == nil {
		file.Locales = map[string]LocaleConfig{}
	}
	return file, nil
}

// searchPaths lists where FindConfigFile looks when no path is given,
// nearest first.
func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), "config.yaml"))
}

// FindConfigFile returns the configuration file to load, or "" when there
// is none. An explicit configPath is used only if it exists. Otherwise
// .ideagraph in the working directory wins over the one in the home
// directory, which wins over config.yaml in the XDG config directory.
func FindConfigFile(configPath string) string {
	candidates := searchPaths()
	if configPath != "" {
		candidates = []string{configPath}
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
