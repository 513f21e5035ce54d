package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. APPUPDATER_FEED_URL.
const envPrefix = "APPUPDATER"

// FlagKeys maps command-line flag names to the config keys they override.
var FlagKeys = map[string]string{
	"app-name":      "app.name",
	"identifier":    "app.identifiers",
	"app-version":   "app.version",
	"bundle-path":   "app.bundle_path",
	"feed-url":      "feed.url",
	"dir":           "updater.directory",
	"updater":       "updater.executable",
	"install-dir":   "install.directory",
	"bundle-suffix": "install.bundle_suffix",
}

// Resolve layers environment variables and changed flags over cfg.
// Precedence, highest first: flags, APPUPDATER_* variables, the file.
// flags may be nil.
func Resolve(cfg *Config, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// File values act as defaults so every key is known to viper
	v.SetDefault("app.name", cfg.App.Name)
	v.SetDefault("app.identifiers", cfg.App.Identifiers)
	v.SetDefault("app.version", cfg.App.Version)
	v.SetDefault("app.version_command", cfg.App.VersionCommand)
	v.SetDefault("app.bundle_path", cfg.App.BundlePath)
	v.SetDefault("feed.url", cfg.Feed.URL)
	v.SetDefault("feed.timeout", cfg.Feed.Timeout)
	v.SetDefault("updater.directory", cfg.Updater.Directory)
	v.SetDefault("updater.executable", cfg.Updater.Executable)
	v.SetDefault("updater.args", cfg.Updater.Args)
	v.SetDefault("install.directory", cfg.Install.Directory)
	v.SetDefault("install.bundle_suffix", cfg.Install.BundleSuffix)
	v.SetDefault("download.timeout", cfg.Download.Timeout)
	v.SetDefault("terminate.timeout", cfg.Terminate.Timeout)

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	out := &Config{
		App: App{
			Name:           v.GetString("app.name"),
			Identifiers:    v.GetStringSlice("app.identifiers"),
			Version:        v.GetString("app.version"),
			VersionCommand: v.GetStringSlice("app.version_command"),
			BundlePath:     v.GetString("app.bundle_path"),
		},
		Feed: Feed{
			URL:     v.GetString("feed.url"),
			Timeout: v.GetString("feed.timeout"),
		},
		Updater: Updater{
			Directory:  v.GetString("updater.directory"),
			Executable: v.GetString("updater.executable"),
			Args:       v.GetStringSlice("updater.args"),
		},
		Install: Install{
			Directory:    v.GetString("install.directory"),
			BundleSuffix: v.GetString("install.bundle_suffix"),
		},
		Download:  Timeout{Timeout: v.GetString("download.timeout")},
		Terminate: Timeout{Timeout: v.GetString("terminate.timeout")},
	}
	out.applyDefaults()

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}
