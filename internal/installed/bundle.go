package installed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

// bundleInfo holds the Info.plist keys that carry a version, in the order
// they are consulted.
type bundleInfo struct {
	ShortVersion string `plist:"CFBundleShortVersionString"`
	Version      string `plist:"CFBundleVersion"`
}

// BundleReader reads the version from a macOS bundle's Info.plist.
// Both XML and binary property lists are accepted.
type BundleReader struct {
	Path string // e.g. /Applications/App.app
}

// InstalledVersion implements update.VersionProvider.
func (r *BundleReader) InstalledVersion(ctx context.Context) (string, error) {
	path := filepath.Join(r.Path, "Contents", "Info.plist")
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var info bundleInfo
	if err := plist.NewDecoder(f).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, v := range []string{info.ShortVersion, info.Version} {
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("no version in %s", path)
}
