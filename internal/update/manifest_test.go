package update

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadHandoffManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.json")
	want := &HandoffManifest{URL: "https://example.com/App.zip", SHA256: "abc123"}

	if err := WriteHandoffManifest(path, want); err != nil {
		t.Fatalf("WriteHandoffManifest() error = %v", err)
	}

	// The document holds exactly the two documented fields
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if len(raw) != 2 || raw["url"] != want.URL || raw["sha256"] != want.SHA256 {
		t.Errorf("manifest = %v", raw)
	}

	got, err := ReadHandoffManifest(path)
	if err != nil {
		t.Fatalf("ReadHandoffManifest() error = %v", err)
	}
	if *got != *want {
		t.Errorf("ReadHandoffManifest() = %+v, want %+v", got, want)
	}
}

func TestReadHandoffManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "url=https://example.com"},
		{"missing sha", `{"url":"https://example.com/App.zip"}`},
		{"missing url", `{"sha256":"abc"}`},
		{"blank values", `{"url":"  ","sha256":""}`},
		{"unknown field", `{"url":"u","sha256":"s","extra":true}`},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "update.json")
			writeFile(t, path, []byte(tt.content))

			_, err := ReadHandoffManifest(path)
			if !IsKind(err, KindManifestUnavailable) {
				t.Errorf("ReadHandoffManifest() error = %v, want %s", err, KindManifestUnavailable)
			}
		})
	}
}

func TestReadHandoffManifest_Missing(t *testing.T) {
	_, err := ReadHandoffManifest(filepath.Join(t.TempDir(), "update.json"))
	if !IsKind(err, KindManifestUnavailable) {
		t.Errorf("ReadHandoffManifest() error = %v, want %s", err, KindManifestUnavailable)
	}
}
