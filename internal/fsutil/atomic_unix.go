//go:build !windows

package fsutil

import (
	"fmt"
	"os"

	"github.com/google/renameio/v2"
)

// AtomicWriteFile writes data to path so that readers see either the old
// content or the new content, never a partial file.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	if err := renameio.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
