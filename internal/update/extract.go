package update

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultBundleSuffix identifies an app bundle among extracted entries
const DefaultBundleSuffix = ".app"

// maxExtractedBytes caps the total size written while extracting an archive
const maxExtractedBytes int64 = 2 << 30

// ExtractArchive unpacks the zip at archivePath into dest. Entries that would
// land outside dest, directly or through a symlink extracted earlier, are
// rejected; file modes and symlinks are kept.
func ExtractArchive(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return newFailure(KindExtractionFailed, "failed to open archive", err)
	}
	defer func() { _ = zr.Close() }()

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return newFailure(KindExtractionFailed, "failed to resolve staging directory", err)
	}
	if err := os.MkdirAll(absDest, 0755); err != nil {
		return newFailure(KindExtractionFailed, "failed to create staging directory", err)
	}
	realDest, err := filepath.EvalSymlinks(absDest)
	if err != nil {
		return newFailure(KindExtractionFailed, "failed to resolve staging directory", err)
	}

	remaining := maxExtractedBytes
	for _, file := range zr.File {
		destPath := filepath.Join(absDest, filepath.FromSlash(file.Name))
		if !within(absDest, destPath) {
			return newFailure(KindExtractionFailed, fmt.Sprintf("invalid path in archive: %s", file.Name), nil)
		}
		if destPath == absDest {
			continue
		}

		// Follow symlinks already on disk so the entry lands where the
		// kernel would put it.
		parent, err := resolvePath(filepath.Dir(destPath))
		if err != nil || !within(realDest, parent) {
			return newFailure(KindExtractionFailed, fmt.Sprintf("invalid path in archive: %s", file.Name), err)
		}
		destPath = filepath.Join(parent, filepath.Base(destPath))

		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(destPath, mode.Perm()|0700); err != nil {
				return newFailure(KindExtractionFailed, "failed to create directory", err)
			}
		case mode&os.ModeSymlink != 0:
			if err := os.MkdirAll(parent, 0755); err != nil {
				return newFailure(KindExtractionFailed, "failed to create parent directory", err)
			}
			if err := extractSymlink(file, realDest, parent, destPath); err != nil {
				return newFailure(KindExtractionFailed, fmt.Sprintf("failed to extract %s", file.Name), err)
			}
		default:
			if err := os.MkdirAll(parent, 0755); err != nil {
				return newFailure(KindExtractionFailed, "failed to create parent directory", err)
			}
			n, err := extractFile(file, destPath, remaining)
			if err != nil {
				return newFailure(KindExtractionFailed, fmt.Sprintf("failed to extract %s", file.Name), err)
			}
			remaining -= n
		}
	}

	return nil
}

// within reports whether path is dest or below it
func within(dest, path string) bool {
	rel, err := filepath.Rel(dest, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolvePath evaluates the symlinks in the longest existing prefix of path
// and appends the part that does not exist yet.
func resolvePath(path string) (string, error) {
	rest := ""
	for cur := path; ; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		up := filepath.Dir(cur)
		if up == cur {
			return "", err
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = up
	}
}

// extractSymlink creates the link at destPath inside the resolved directory
// parent. Targets must be relative and clean, so ".." may only lead the
// target and is applied to a real path.
func extractSymlink(file *zip.File, dest, parent, destPath string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	target, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return err
	}
	link := filepath.FromSlash(string(target))
	if link == "" || filepath.IsAbs(link) || filepath.Clean(link) != link {
		return fmt.Errorf("symlink %s has an unsupported target %q", file.Name, target)
	}

	up := parent
	for _, part := range strings.Split(link, string(filepath.Separator)) {
		if part != ".." {
			break
		}
		up = filepath.Dir(up)
	}
	if !within(dest, up) || !within(dest, filepath.Join(parent, link)) {
		return fmt.Errorf("symlink %s points outside the archive", file.Name)
	}
	return os.Symlink(link, destPath)
}

func extractFile(file *zip.File, destPath string, limit int64) (_ int64, err error) {
	rc, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	perm := file.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, fmt.Errorf("archive exceeds %d bytes when extracted", maxExtractedBytes)
	}
	return n, nil
}

// FindBundle returns the single top-level entry of staging ending in suffix.
// Archive metadata such as __MACOSX is ignored.
func FindBundle(staging, suffix string) (string, error) {
	if suffix == "" {
		suffix = DefaultBundleSuffix
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", newFailure(KindExtractionFailed, "failed to read staging directory", err)
	}

	var found []string
	for _, entry := range entries {
		name := entry.Name()
		if name == "__MACOSX" || strings.HasPrefix(name, "._") {
			continue
		}
		if strings.HasSuffix(name, suffix) {
			found = append(found, name)
		}
	}

	switch len(found) {
	case 1:
		return filepath.Join(staging, found[0]), nil
	case 0:
		return "", newFailure(KindExtractionFailed, fmt.Sprintf("archive contains no %s bundle", suffix), nil)
	default:
		return "", newFailure(KindExtractionFailed,
			fmt.Sprintf("archive contains %d %s bundles: %s", len(found), suffix, strings.Join(found, ", ")), nil)
	}
}
