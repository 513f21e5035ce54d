package update

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "App.zip")
	writeFile(t, archive, appZip(t, "v2"))

	staging := filepath.Join(dir, "extracted")
	if err := os.MkdirAll(staging, 0755); err != nil {
		t.Fatalf("Failed to create staging: %v", err)
	}

	if err := ExtractArchive(archive, staging); err != nil {
		t.Fatalf("ExtractArchive() error = %v", err)
	}

	exe := filepath.Join(staging, "App.app", "Contents", "MacOS", "App")
	data, err := os.ReadFile(exe)
	if err != nil {
		t.Fatalf("Failed to read extracted executable: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("extracted content = %s, want v2", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(exe)
		if err != nil {
			t.Fatalf("Failed to stat executable: %v", err)
		}
		if info.Mode().Perm()&0100 == 0 {
			t.Errorf("executable mode = %v, want executable bit", info.Mode())
		}
	}
}

func TestExtractArchive_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	archive := filepath.Join(dir, "App.zip")
	writeFile(t, archive, buildZip(t, []zipEntry{
		{Name: "App.app/Contents/Frameworks/Lib.framework/Versions/A/Lib", Content: "lib"},
		{Name: "App.app/Contents/Frameworks/Lib.framework/Lib", Content: "Versions/A/Lib", Mode: os.ModeSymlink | 0777},
	}))

	staging := filepath.Join(dir, "extracted")
	if err := ExtractArchive(archive, staging); err != nil {
		t.Fatalf("ExtractArchive() error = %v", err)
	}

	link := filepath.Join(staging, "App.app", "Contents", "Frameworks", "Lib.framework", "Lib")
	target, err := os.Readlink(link)
	if err != nil {
		t.Fatalf("symlink not created: %v", err)
	}
	if target != "Versions/A/Lib" {
		t.Errorf("symlink target = %s, want Versions/A/Lib", target)
	}
}

func TestExtractArchive_EntryThroughContainedSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	archive := filepath.Join(dir, "App.zip")
	writeFile(t, archive, buildZip(t, []zipEntry{
		{Name: "App.app/Contents/Versions/A/", Mode: os.ModeDir | 0755},
		{Name: "App.app/Contents/Current", Content: "Versions/A", Mode: os.ModeSymlink | 0777},
		{Name: "App.app/Contents/Current/Info.plist", Content: "plist"},
	}))

	staging := filepath.Join(dir, "extracted")
	if err := ExtractArchive(archive, staging); err != nil {
		t.Fatalf("ExtractArchive() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(staging, "App.app", "Contents", "Versions", "A", "Info.plist"))
	if err != nil || string(data) != "plist" {
		t.Errorf("Info.plist = %q, %v", data, err)
	}
}

func TestExtractArchive_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		entries []zipEntry
	}{
		{
			name:    "path traversal",
			entries: []zipEntry{{Name: "../evil", Content: "x"}},
		},
		{
			name:    "nested traversal",
			entries: []zipEntry{{Name: "App.app/../../evil", Content: "x"}},
		},
		{
			name:    "escaping symlink",
			entries: []zipEntry{{Name: "App.app/link", Content: "../../../etc/passwd", Mode: os.ModeSymlink | 0777}},
		},
		{
			name:    "absolute symlink",
			entries: []zipEntry{{Name: "App.app/link", Content: "/etc/passwd", Mode: os.ModeSymlink | 0777}},
		},
		{
			name: "symlink chain",
			entries: []zipEntry{
				{Name: "a", Content: ".", Mode: os.ModeSymlink | 0777},
				{Name: "a/b", Content: "..", Mode: os.ModeSymlink | 0777},
				{Name: "b/escaped.txt", Content: "x"},
			},
		},
		{
			name: "parent after symlink",
			entries: []zipEntry{
				{Name: "a", Content: ".", Mode: os.ModeSymlink | 0777},
				{Name: "c", Content: "a/..", Mode: os.ModeSymlink | 0777},
				{Name: "c/escaped.txt", Content: "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "bad.zip")
			writeFile(t, archive, buildZip(t, tt.entries))

			err := ExtractArchive(archive, filepath.Join(dir, "extracted"))
			if !IsKind(err, KindExtractionFailed) {
				t.Errorf("ExtractArchive() error = %v, want %s", err, KindExtractionFailed)
			}
			for _, name := range []string{"evil", "escaped.txt"} {
				if _, statErr := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(statErr) {
					t.Errorf("%s escaped the staging directory", name)
				}
			}
		})
	}
}

func TestExtractArchive_NotAZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "App.zip")
	writeFile(t, archive, []byte("definitely not a zip"))

	err := ExtractArchive(archive, filepath.Join(dir, "extracted"))
	if !IsKind(err, KindExtractionFailed) {
		t.Errorf("ExtractArchive() error = %v, want %s", err, KindExtractionFailed)
	}
}

func TestFindBundle(t *testing.T) {
	tests := []struct {
		name    string
		dirs    []string
		want    string
		wantErr bool
	}{
		{name: "single bundle", dirs: []string{"App.app"}, want: "App.app"},
		{name: "ignores metadata", dirs: []string{"__MACOSX", "App.app", "._App.app"}, want: "App.app"},
		{name: "ignores other entries", dirs: []string{"README", "App.app"}, want: "App.app"},
		{name: "no bundle", dirs: []string{"README"}, wantErr: true},
		{name: "empty", dirs: nil, wantErr: true},
		{name: "two bundles", dirs: []string{"App.app", "Other.app"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staging := t.TempDir()
			for _, d := range tt.dirs {
				if err := os.MkdirAll(filepath.Join(staging, d), 0755); err != nil {
					t.Fatalf("Failed to create %s: %v", d, err)
				}
			}

			got, err := FindBundle(staging, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindBundle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsKind(err, KindExtractionFailed) {
					t.Errorf("FindBundle() kind = %s, want %s", KindOf(err), KindExtractionFailed)
				}
				return
			}
			if got != filepath.Join(staging, tt.want) {
				t.Errorf("FindBundle() = %s, want %s", got, filepath.Join(staging, tt.want))
			}
		})
	}
}
