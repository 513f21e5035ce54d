package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "update.json")

	if err := AtomicWriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	// No temporary files should be left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestAtomicWriteFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no POSIX permissions on windows")
	}
	path := filepath.Join(t.TempDir(), "update.json")

	if err := AtomicWriteFile(path, []byte("new"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestAtomicWriteFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "update.json")
	if err := AtomicWriteFile(path, []byte("x"), 0644); err == nil {
		t.Error("AtomicWriteFile() expected error for missing directory")
	}
}

func TestTouch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upgrade.success")

	if err := Touch(path); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := Touch(path); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "keep" {
		t.Errorf("Touch() truncated existing file, content = %q", data)
	}
}

func TestCopyTree(t *testing.T) {
	src := filepath.Join(t.TempDir(), "App.app")
	macos := filepath.Join(src, "Contents", "MacOS")
	if err := os.MkdirAll(macos, 0755); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(macos, "App"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "Contents", "Info.plist"), []byte("<plist/>"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Symlink("MacOS/App", filepath.Join(src, "Contents", "Current")); err != nil {
			t.Fatalf("Failed to create symlink: %v", err)
		}
	}

	dst := filepath.Join(t.TempDir(), "App.app")
	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dst, "Contents", "MacOS", "App"))
	if err != nil {
		t.Fatalf("copied executable missing: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0100 == 0 {
		t.Errorf("copied executable mode = %v, want executable", info.Mode())
	}

	data, err := os.ReadFile(filepath.Join(dst, "Contents", "Info.plist"))
	if err != nil || string(data) != "<plist/>" {
		t.Errorf("Info.plist = %q, %v", data, err)
	}

	if runtime.GOOS != "windows" {
		link, err := os.Readlink(filepath.Join(dst, "Contents", "Current"))
		if err != nil {
			t.Fatalf("symlink not preserved: %v", err)
		}
		if link != "MacOS/App" {
			t.Errorf("symlink target = %s, want MacOS/App", link)
		}
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "appupdater")
	if err := os.WriteFile(src, []byte("binary"), 0755); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	dst := filepath.Join(dir, "copy")
	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "binary" {
		t.Errorf("copy = %q, %v", data, err)
	}

	if err := Copy(src, dst); err == nil {
		t.Error("Copy() expected error when destination exists")
	}
	if err := Copy(filepath.Join(dir, "missing"), filepath.Join(dir, "other")); err == nil {
		t.Error("Copy() expected error for missing source")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if !Exists(dir) {
		t.Error("Exists() = false for existing dir")
	}
	if Exists(filepath.Join(dir, "nope")) {
		t.Error("Exists() = true for missing path")
	}
}
