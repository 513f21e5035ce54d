package update

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adamancini/appupdater/internal/fsutil"
)

// ReadHandoffManifest loads and validates the manifest at path
func ReadHandoffManifest(path string) (*HandoffManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newFailure(KindManifestUnavailable, "failed to read handoff manifest", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m HandoffManifest
	if err := dec.Decode(&m); err != nil {
		return nil, newFailure(KindManifestUnavailable, "failed to parse handoff manifest", err)
	}

	m.URL = strings.TrimSpace(m.URL)
	m.SHA256 = strings.TrimSpace(m.SHA256)
	if m.URL == "" || m.SHA256 == "" {
		return nil, newFailure(KindManifestUnavailable, "handoff manifest requires url and sha256", nil)
	}
	return &m, nil
}

// WriteHandoffManifest atomically writes m to path
func WriteHandoffManifest(path string, m *HandoffManifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal handoff manifest: %w", err)
	}
	if err := fsutil.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write handoff manifest: %w", err)
	}
	return nil
}
