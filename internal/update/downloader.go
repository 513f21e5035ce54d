package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const defaultArchiveName = "update.zip"

var _ ArchiveDownloader = (*HTTPDownloader)(nil)

// HTTPDownloader downloads archives over HTTP or from local paths
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates a downloader whose requests time out after timeout
func NewHTTPDownloader(timeout time.Duration) *HTTPDownloader {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &HTTPDownloader{
		client: NewHTTPClient(timeout),
	}
}

// NewHTTPDownloaderWithClient creates a downloader using client (for testing)
func NewHTTPDownloaderWithClient(client *http.Client) *HTTPDownloader {
	return &HTTPDownloader{client: client}
}

// ArchiveName derives the local file name for an archive URL.
// The name always ends in .zip.
func ArchiveName(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		name = path.Base(p)
	}
	if name == "" || name == "." || name == "/" {
		return defaultArchiveName
	}
	if !strings.EqualFold(path.Ext(name), ".zip") {
		name += ".zip"
	}
	return name
}

// Download retrieves rawURL into dir and returns the path of the archive.
// The archive only appears under its final name once it was fully written
// and is non-empty.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL, dir string) (_ string, err error) {
	body, err := open(ctx, d.client, rawURL)
	if err != nil {
		return "", newFailure(KindDownloadFailed, "failed to download update", err)
	}
	defer func() { _ = body.Close() }()

	name := ArchiveName(rawURL)
	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return "", newFailure(KindDownloadFailed, "failed to create download file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, body)
	if err != nil {
		return "", newFailure(KindDownloadFailed, "failed to write download", err)
	}
	if n == 0 {
		return "", newFailure(KindDownloadFailed, "downloaded file is empty", nil)
	}
	if err = tmp.Close(); err != nil {
		return "", newFailure(KindDownloadFailed, "failed to close download", err)
	}

	dst := filepath.Join(dir, name)
	if err = os.Rename(tmpName, dst); err != nil {
		return "", newFailure(KindDownloadFailed, "failed to move download into place", err)
	}
	return dst, nil
}

// VerifyChecksum compares the SHA-256 of file with the expected hex digest.
// The comparison ignores case and surrounding whitespace.
func (d *HTTPDownloader) VerifyChecksum(file, expected string) error {
	return VerifyChecksum(file, expected)
}

// VerifyChecksum compares the SHA-256 of file with the expected hex digest
func VerifyChecksum(file, expected string) error {
	got, err := ComputeFileHash(file)
	if err != nil {
		return newFailure(KindChecksumMismatch, "failed to hash download", err)
	}
	expected = strings.TrimSpace(expected)
	if !strings.EqualFold(got, expected) {
		return &ChecksumError{Path: file, Expected: expected, Got: got}
	}
	return nil
}

// ComputeFileHash returns the hex-encoded SHA-256 of the file at path
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
