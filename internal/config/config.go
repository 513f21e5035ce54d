// Package config handles appupdater configuration discovery and loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults for the duration settings
const (
	DefaultFeedTimeout      = "10s"
	DefaultDownloadTimeout  = "20s"
	DefaultTerminateTimeout = "30s"
	DefaultBundleSuffix     = ".app"
)

// ErrNotFound is returned by Find when no config file exists.
var ErrNotFound = errors.New("no appupdater config found")

// App describes the application being updated.
type App struct {
	Name           string   `yaml:"name" toml:"name" json:"name"`
	Identifiers    []string `yaml:"identifiers,omitempty" toml:"identifiers,omitempty" json:"identifiers,omitempty"`             // Process names or bundle ids to stop
	Version        string   `yaml:"version,omitempty" toml:"version,omitempty" json:"version,omitempty"`                         // Fixed installed version
	VersionCommand []string `yaml:"version_command,omitempty" toml:"version_command,omitempty" json:"version_command,omitempty"` // Command printing the installed version
	BundlePath     string   `yaml:"bundle_path,omitempty" toml:"bundle_path,omitempty" json:"bundle_path,omitempty"`             // Bundle carrying Info.plist
}

// Feed locates the package descriptor.
type Feed struct {
	URL     string `yaml:"url" toml:"url" json:"url"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Updater configures the hand-off to the updater process.
type Updater struct {
	Directory  string   `yaml:"directory,omitempty" toml:"directory,omitempty" json:"directory,omitempty"`
	Executable string   `yaml:"executable,omitempty" toml:"executable,omitempty" json:"executable,omitempty"`
	Args       []string `yaml:"args,omitempty" toml:"args,omitempty" json:"args,omitempty"`
}

// Install configures where bundles are swapped in.
type Install struct {
	Directory    string `yaml:"directory,omitempty" toml:"directory,omitempty" json:"directory,omitempty"`
	BundleSuffix string `yaml:"bundle_suffix,omitempty" toml:"bundle_suffix,omitempty" json:"bundle_suffix,omitempty"`
}

// Timeout holds a duration string such as "20s".
type Timeout struct {
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Config is the parsed configuration file.
type Config struct {
	App       App     `yaml:"app" toml:"app" json:"app"`
	Feed      Feed    `yaml:"feed" toml:"feed" json:"feed"`
	Updater   Updater `yaml:"updater" toml:"updater" json:"updater"`
	Install   Install `yaml:"install" toml:"install" json:"install"`
	Download  Timeout `yaml:"download" toml:"download" json:"download"`
	Terminate Timeout `yaml:"terminate" toml:"terminate" json:"terminate"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Feed.Timeout == "" {
		c.Feed.Timeout = DefaultFeedTimeout
	}
	if c.Download.Timeout == "" {
		c.Download.Timeout = DefaultDownloadTimeout
	}
	if c.Terminate.Timeout == "" {
		c.Terminate.Timeout = DefaultTerminateTimeout
	}
	if c.Install.BundleSuffix == "" {
		c.Install.BundleSuffix = DefaultBundleSuffix
	}
}

// FeedTimeout returns the parsed feed timeout. Validate rejects bad values.
func (c *Config) FeedTimeout() time.Duration {
	return mustDuration(c.Feed.Timeout, DefaultFeedTimeout)
}

// DownloadTimeout returns the parsed download timeout.
func (c *Config) DownloadTimeout() time.Duration {
	return mustDuration(c.Download.Timeout, DefaultDownloadTimeout)
}

// TerminateTimeout returns the parsed terminate timeout.
func (c *Config) TerminateTimeout() time.Duration {
	return mustDuration(c.Terminate.Timeout, DefaultTerminateTimeout)
}

func mustDuration(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// fileNames are tried in order in each search directory
var fileNames = []string{
	"appupdater.yaml",
	"appupdater.yml",
	"appupdater.toml",
	"appupdater.json",
	".appupdater.yaml",
	".appupdater.yml",
	".appupdater.toml",
	".appupdater.json",
}

// Find searches for a config file in the standard locations.
// Returns ErrNotFound when none exists.
func Find(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv("APPUPDATER_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	searchPaths := []string{
		filepath.Join(xdgConfig, "appupdater"),
		filepath.Join(home, ".appupdater"),
		home,
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", ErrNotFound
}

// Load reads, parses and validates the config at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	cfg, err := parse(content, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the config Find locates, or the defaults when there
// is none. The returned path is empty in the latter case.
func LoadOrDefault(explicitPath string) (*Config, string, error) {
	path, err := Find(explicitPath)
	if errors.Is(err, ErrNotFound) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
