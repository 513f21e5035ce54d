package update

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"testing"
)

// zipEntry describes one entry of a test archive
type zipEntry struct {
	Name    string
	Content string
	Mode    os.FileMode
}

// buildZip returns the bytes of a zip archive holding entries
func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		mode := e.Mode
		if mode == 0 {
			mode = 0644
		}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("Failed to create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(e.Content)); err != nil {
			t.Fatalf("Failed to write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// appZip returns an archive with a single App.app bundle whose executable
// holds content
func appZip(t *testing.T, content string) []byte {
	t.Helper()
	return buildZip(t, []zipEntry{
		{Name: "App.app/", Mode: os.ModeDir | 0755},
		{Name: "App.app/Contents/", Mode: os.ModeDir | 0755},
		{Name: "App.app/Contents/Info.plist", Content: "<plist/>"},
		{Name: "App.app/Contents/MacOS/", Mode: os.ModeDir | 0755},
		{Name: "App.app/Contents/MacOS/App", Content: content, Mode: 0755},
	})
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// fakeDialog records prompts and answers every one with choice
type fakeDialog struct {
	prompts []Prompt
	choice  int
}

func (d *fakeDialog) Present(p Prompt) (int, error) {
	d.prompts = append(d.prompts, p)
	return d.choice, nil
}

// fakeProcs records terminate and launch requests
type fakeProcs struct {
	terminated   [][]string
	launched     [][]string
	terminateErr error
	launchErr    error
}

func (p *fakeProcs) Terminate(ctx context.Context, identifiers []string) error {
	p.terminated = append(p.terminated, identifiers)
	return p.terminateErr
}

func (p *fakeProcs) Launch(path string, args ...string) error {
	p.launched = append(p.launched, append([]string{path}, args...))
	return p.launchErr
}
