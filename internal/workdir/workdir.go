// Package workdir manages the directory shared by the checker and the updater.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ManifestFile = "update.json"
	MarkerFile   = "upgrade.success"
	StagingDir   = "extracted"
	LockFile     = ".update.lock"
	LogFile      = "updater.log"
	ArchiveExt   = ".zip"
)

// Dir is the shared updater directory
type Dir struct {
	root string
}

// New returns the updater directory at path, expanding a leading ~.
// An empty path selects the default location.
func New(path string) (*Dir, error) {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	expanded, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", expanded, err)
	}
	return &Dir{root: abs}, nil
}

// NewWithRoot returns a Dir rooted at root without any expansion (for testing).
func NewWithRoot(root string) *Dir {
	return &Dir{root: root}
}

// DefaultPath returns the default updater directory path.
func DefaultPath() (string, error) {
	// Use XDG_CONFIG_HOME or default to ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "appupdater", "updater"), nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// Root returns the directory path
func (d *Dir) Root() string {
	return d.root
}

// Path joins elem onto the directory path
func (d *Dir) Path(elem ...string) string {
	return filepath.Join(append([]string{d.root}, elem...)...)
}

// ManifestPath returns the handoff manifest location
func (d *Dir) ManifestPath() string {
	return d.Path(ManifestFile)
}

// MarkerPath returns the install marker location
func (d *Dir) MarkerPath() string {
	return d.Path(MarkerFile)
}

// StagingPath returns the extraction staging directory
func (d *Dir) StagingPath() string {
	return d.Path(StagingDir)
}

// LogPath returns the updater log location
func (d *Dir) LogPath() string {
	return d.Path(LogFile)
}

// Ensure creates the directory if needed
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.root, 0755); err != nil {
		return fmt.Errorf("failed to create updater directory: %w", err)
	}
	return nil
}

// ResetStaging removes and recreates the staging directory
func (d *Dir) ResetStaging() (string, error) {
	staging := d.StagingPath()
	if err := os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("failed to remove staging directory: %w", err)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return staging, nil
}

// HasMarker reports whether the install marker exists
func (d *Dir) HasMarker() bool {
	_, err := os.Stat(d.MarkerPath())
	return err == nil
}

// ClearMarker removes the install marker if present
func (d *Dir) ClearMarker() error {
	if err := os.Remove(d.MarkerPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove install marker: %w", err)
	}
	return nil
}
