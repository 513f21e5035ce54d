// Package installed reports the version of the app that is currently installed.
package installed

import (
	"context"
	"fmt"
	"strings"

	"github.com/adamancini/appupdater/internal/process"
)

// Static is a version known ahead of time, e.g. baked in at build time.
type Static string

// InstalledVersion returns the static version.
func (s Static) InstalledVersion(ctx context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", fmt.Errorf("no version configured")
	}
	return string(s), nil
}

// Source describes where the installed version can be read from.
// The first non-empty field wins.
type Source struct {
	Version    string   // Literal version
	Command    []string // Program and arguments printing the version
	BundlePath string   // App bundle carrying Contents/Info.plist
}

// Provider reads an installed version
type Provider interface {
	InstalledVersion(ctx context.Context) (string, error)
}

// New returns the provider for src.
func New(src Source, runner process.CommandRunner) (Provider, error) {
	switch {
	case strings.TrimSpace(src.Version) != "":
		return Static(strings.TrimSpace(src.Version)), nil
	case len(src.Command) > 0:
		return NewCommandReader(runner, src.Command[0], src.Command[1:]...), nil
	case src.BundlePath != "":
		return &BundleReader{Path: src.BundlePath}, nil
	default:
		return nil, fmt.Errorf("no installed version source configured")
	}
}
