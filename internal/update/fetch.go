package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultFeedTimeout bounds retrieval of a package descriptor
	DefaultFeedTimeout = 10 * time.Second
	// DefaultDownloadTimeout bounds retrieval of an archive
	DefaultDownloadTimeout = 20 * time.Second

	maxDescriptorBytes = 1 << 20
)

// userAgent is sent with every HTTP request
var userAgent = "appupdater"

// SetUserAgent sets the User-Agent sent with HTTP requests
func SetUserAgent(ua string) {
	if ua != "" {
		userAgent = ua
	}
}

// localPath returns the filesystem path for file URLs and bare paths
func localPath(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return u.Opaque, u.Opaque != ""
		}
		return filepath.FromSlash(u.Path), true
	case "":
		return rawURL, rawURL != ""
	}
	return "", false
}

// open returns a reader for rawURL. Local paths are opened directly and
// everything else is requested over HTTP; redirects are followed.
func open(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, error) {
	if path, ok := localPath(rawURL); ok {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

// NewHTTPClient returns a client with the given overall timeout
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
