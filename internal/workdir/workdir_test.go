package workdir

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeArchive(t *testing.T, d *Dir, name string, modTime time.Time) {
	t.Helper()
	path := d.Path(name)
	if err := os.WriteFile(path, []byte("zip"), 0644); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("Failed to set times: %v", err)
	}
}

func TestNewExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	d, err := New("~/Library/Application Support/App/Updater")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := filepath.Join(home, "Library", "Application Support", "App", "Updater")
	if d.Root() != want {
		t.Errorf("Root() = %s, want %s", d.Root(), want)
	}
}

func TestNewDefault(t *testing.T) {
	cfg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfg)

	d, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := filepath.Join(cfg, "appupdater", "updater")
	if d.Root() != want {
		t.Errorf("Root() = %s, want %s", d.Root(), want)
	}
}

func TestPaths(t *testing.T) {
	d := NewWithRoot("/tmp/updater")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"manifest", d.ManifestPath(), filepath.Join("/tmp/updater", "update.json")},
		{"marker", d.MarkerPath(), filepath.Join("/tmp/updater", "upgrade.success")},
		{"staging", d.StagingPath(), filepath.Join("/tmp/updater", "extracted")},
		{"log", d.LogPath(), filepath.Join("/tmp/updater", "updater.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("path = %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestResetStaging(t *testing.T) {
	d := NewWithRoot(t.TempDir())
	stale := filepath.Join(d.StagingPath(), "Old.app")
	if err := os.MkdirAll(stale, 0755); err != nil {
		t.Fatalf("Failed to create stale bundle: %v", err)
	}

	staging, err := d.ResetStaging()
	if err != nil {
		t.Fatalf("ResetStaging() error = %v", err)
	}
	entries, err := os.ReadDir(staging)
	if err != nil {
		t.Fatalf("Failed to read staging: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staging has %d entries after reset, want 0", len(entries))
	}
}

func TestArchives(t *testing.T) {
	d := NewWithRoot(t.TempDir())
	now := time.Now()
	writeArchive(t, d, "old.zip", now.Add(-2*time.Hour))
	writeArchive(t, d, "new.ZIP", now)
	if err := os.WriteFile(d.ManifestPath(), []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	archives, err := d.Archives()
	if err != nil {
		t.Fatalf("Archives() error = %v", err)
	}
	if len(archives) != 2 {
		t.Fatalf("Archives() count = %d, want 2", len(archives))
	}
	if archives[0].Name != "new.ZIP" {
		t.Errorf("Archives()[0] = %s, want new.ZIP", archives[0].Name)
	}
}

func TestArchivesMissingDir(t *testing.T) {
	d := NewWithRoot(filepath.Join(t.TempDir(), "missing"))
	archives, err := d.Archives()
	if err != nil {
		t.Fatalf("Archives() error = %v", err)
	}
	if len(archives) != 0 {
		t.Errorf("Archives() count = %d, want 0", len(archives))
	}
}

func TestPruneArchives(t *testing.T) {
	d := NewWithRoot(t.TempDir())
	now := time.Now()
	for i, name := range []string{"a.zip", "b.zip", "c.zip"} {
		writeArchive(t, d, name, now.Add(time.Duration(i)*time.Minute))
	}

	result, err := d.PruneArchives(1)
	if err != nil {
		t.Fatalf("PruneArchives() error = %v", err)
	}
	if result.Kept != 1 {
		t.Errorf("PruneArchives() Kept = %d, want 1", result.Kept)
	}
	if len(result.Deleted) != 2 {
		t.Errorf("PruneArchives() Deleted count = %d, want 2", len(result.Deleted))
	}

	archives, _ := d.Archives()
	if len(archives) != 1 || archives[0].Name != "c.zip" {
		t.Errorf("remaining archives = %+v, want only c.zip", archives)
	}

	result, err = d.PruneArchives(0)
	if err != nil {
		t.Fatalf("PruneArchives(0) error = %v", err)
	}
	if len(result.Deleted) != 1 {
		t.Errorf("PruneArchives(0) Deleted count = %d, want 1", len(result.Deleted))
	}
}

func TestPruneArchivesNegative(t *testing.T) {
	d := NewWithRoot(t.TempDir())
	if _, err := d.PruneArchives(-1); err == nil {
		t.Error("PruneArchives(-1) expected error")
	}
}

func TestMarker(t *testing.T) {
	d := NewWithRoot(t.TempDir())
	if d.HasMarker() {
		t.Fatal("HasMarker() = true before touching")
	}
	if err := os.WriteFile(d.MarkerPath(), nil, 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}
	if !d.HasMarker() {
		t.Error("HasMarker() = false after touching")
	}
	if err := d.ClearMarker(); err != nil {
		t.Fatalf("ClearMarker() error = %v", err)
	}
	if err := d.ClearMarker(); err != nil {
		t.Errorf("ClearMarker() on missing marker error = %v", err)
	}
}

func TestTryLock(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("lock contention within one process is not reported on windows")
	}
	d := NewWithRoot(filepath.Join(t.TempDir(), "updater"))

	lock, err := d.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}

	if _, err := d.TryLock(); !errors.Is(err, ErrAlreadyLocked) {
		t.Errorf("second TryLock() error = %v, want ErrAlreadyLocked", err)
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	again, err := d.TryLock()
	if err != nil {
		t.Fatalf("TryLock() after unlock error = %v", err)
	}
	_ = again.Unlock()
}

func TestStatus(t *testing.T) {
	d := NewWithRoot(t.TempDir())

	st, err := d.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Pending || st.Installed || st.Staged {
		t.Errorf("Status() on empty dir = %+v", st)
	}

	manifest := `{"url":"https://example.com/App.zip","sha256":"abc"}`
	if err := os.WriteFile(d.ManifestPath(), []byte(manifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	if err := os.WriteFile(d.MarkerPath(), nil, 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}
	writeArchive(t, d, "App.zip", time.Now())

	st, err = d.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !st.Pending || st.PendingURL != "https://example.com/App.zip" {
		t.Errorf("Status() pending = %v %q", st.Pending, st.PendingURL)
	}
	if !st.Installed || st.InstalledAt == nil {
		t.Errorf("Status() installed = %v", st.Installed)
	}
	if len(st.Archives) != 1 {
		t.Errorf("Status() archives = %d, want 1", len(st.Archives))
	}
}

func TestStatusMissingDir(t *testing.T) {
	d := NewWithRoot(filepath.Join(t.TempDir(), "missing"))
	st, err := d.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Exists {
		t.Error("Status().Exists = true for missing dir")
	}
}
