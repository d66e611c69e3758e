package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the default configuration file name.
	DefaultConfigFile = ".arachne"

	// XDGConfigFileName is the configuration file looked up in XDGConfigDir.
	XDGConfigFileName = "config.yaml"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrInvalidPattern is returned when an ignore or follow pattern is not a valid glob.
var ErrInvalidPattern = errors.New("invalid URL pattern")

// LoadConfigFile loads site and scanner configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(filePath string) (*File, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	if err := cf.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	return &cf, nil
}

// validate rejects patterns that path.Match cannot evaluate, so a typo
// fails at startup instead of silently never matching during a crawl.
func (cf *File) validate() error {
	check := func(where string, sc SiteConfig) error {
		for _, p := range append(append([]string{}, sc.IgnorePatterns...), sc.FollowPatterns...) {
			if _, err := path.Match(p, "/"); err != nil {
				return fmt.Errorf("%w %q in %s", ErrInvalidPattern, p, where)
			}
		}
		if sc.MaxPages < 0 {
			return fmt.Errorf("%w in %s", ErrInvalidMaxPages, where)
		}
		return nil
	}

	if err := check("defaults", cf.Defaults); err != nil {
		return err
	}
	for host, sc := range cf.Sites {
		if err := check("sites."+host, sc); err != nil {
			return err
		}
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .arachne in the current directory
// 3. Look for .arachne in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}
	return firstExisting(configSearchPaths())
}

// configSearchPaths lists the implicit config file locations, most specific first.
func configSearchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), XDGConfigFileName))
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
