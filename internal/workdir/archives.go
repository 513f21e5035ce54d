package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ArchiveInfo provides summary information about a downloaded archive.
type ArchiveInfo struct {
	Name       string    `json:"name" yaml:"name"`
	Path       string    `json:"path" yaml:"path"`
	Size       int64     `json:"size" yaml:"size"`
	ModifiedAt time.Time `json:"modified_at" yaml:"modified_at"`
}

// PruneResult contains information about what was pruned.
type PruneResult struct {
	Deleted []ArchiveInfo
	Kept    int
}

// Archives returns the zip archives in the directory, newest first.
func (d *Dir) Archives() ([]ArchiveInfo, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []ArchiveInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read updater directory: %w", err)
	}

	var archives []ArchiveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ArchiveExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		archives = append(archives, ArchiveInfo{
			Name:       entry.Name(),
			Path:       filepath.Join(d.root, entry.Name()),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	// Sort by modification time, newest first
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].ModifiedAt.After(archives[j].ModifiedAt)
	})

	return archives, nil
}

// PruneArchives removes old archives, keeping only the most recent keep.
func (d *Dir) PruneArchives(keep int) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must be non-negative")
	}

	archives, err := d.Archives()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{}

	// Archives are already sorted newest first
	if len(archives) <= keep {
		result.Kept = len(archives)
		return result, nil
	}

	toDelete := archives[keep:]
	result.Kept = keep

	for _, archive := range toDelete {
		if err := os.Remove(archive.Path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to delete archive %s: %w", archive.Name, err)
		}
		result.Deleted = append(result.Deleted, archive)
	}

	return result, nil
}
