package update

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamancini/appupdater/internal/fsutil"
)

// BundleReplacer moves a staged bundle into the install directory
type BundleReplacer struct {
	installDir string
	rename     func(oldpath, newpath string) error
}

// NewBundleReplacer creates a replacer targeting installDir
func NewBundleReplacer(installDir string) *BundleReplacer {
	return &BundleReplacer{
		installDir: installDir,
		rename:     os.Rename,
	}
}

// Replace installs the bundle at staged under installDir with the same name.
// Returns the installed path.
func (r *BundleReplacer) Replace(staged string) (string, error) {
	name := filepath.Base(staged)
	target := filepath.Join(r.installDir, name)

	// 1. Bring the staged bundle onto the install filesystem
	incoming, err := r.relocate(staged, name)
	if err != nil {
		return "", newFailure(KindInstallDirectoryUnwritable, "failed to stage bundle in install directory", err)
	}

	// 2. Remove the existing bundle
	if err := os.RemoveAll(target); err != nil {
		_ = os.RemoveAll(incoming)
		return "", newFailure(KindInstallDirectoryUnwritable, fmt.Sprintf("failed to remove %s", target), err)
	}

	// 3. Move the new bundle into place
	if err := r.rename(incoming, target); err != nil {
		return "", newFailure(KindInstallDirectoryUnwritable, fmt.Sprintf("failed to move bundle to %s", target), err)
	}

	return target, nil
}

// relocate moves staged next to the install target. A rename is tried first;
// across filesystems the bundle is copied instead.
func (r *BundleReplacer) relocate(staged, name string) (string, error) {
	if err := os.MkdirAll(r.installDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create install directory: %w", err)
	}

	incoming := filepath.Join(r.installDir, fmt.Sprintf(".%s.incoming-%d", name, os.Getpid()))
	if err := os.RemoveAll(incoming); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", incoming, err)
	}

	err := r.rename(staged, incoming)
	if err == nil {
		return incoming, nil
	}
	if !fsutil.IsCrossDevice(err) {
		return "", err
	}

	if err := fsutil.Copy(staged, incoming); err != nil {
		_ = os.RemoveAll(incoming)
		return "", fmt.Errorf("failed to copy bundle across filesystems: %w", err)
	}
	_ = os.RemoveAll(staged)
	return incoming, nil
}
