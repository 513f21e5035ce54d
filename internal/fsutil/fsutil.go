// Package fsutil provides the filesystem primitives the updater relies on.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	cp "github.com/otiai10/copy"
)

// Touch creates path if it does not exist and updates its modification time
func Touch(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return fmt.Errorf("failed to update times of %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists, without following a final symlink
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsCrossDevice reports whether err came from renaming across filesystems
func IsCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// Copy copies src to dst. Directories are copied recursively; file modes and
// symlinks are preserved. dst must not exist.
func Copy(src, dst string) error {
	if _, err := os.Lstat(src); err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if Exists(dst) {
		return fmt.Errorf("destination %s already exists: %w", dst, fs.ErrExist)
	}

	err := cp.Copy(src, dst, cp.Options{
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow
		},
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
