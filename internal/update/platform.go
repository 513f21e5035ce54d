package update

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform describes the current system platform
type Platform struct {
	OS   string // Operating system (darwin, linux, windows)
	Arch string // Architecture (amd64, arm64)
}

// Detect returns the current platform (OS and architecture)
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// DefaultInstallDir returns where app bundles live on this platform
func (p Platform) DefaultInstallDir() string {
	switch p.OS {
	case "darwin":
		return "/Applications"
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, "Programs")
		}
		return `C:\Program Files`
	default:
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "opt")
		}
		return "/opt"
	}
}

// LaunchCommand returns the program and arguments that start the app at path.
//
// On macOS a bundle is handed to open(1). Elsewhere a bundle directory runs
// the executable named after it, e.g. Tool.app/Tool; a file runs directly.
func (p Platform) LaunchCommand(path string, isDir bool, args ...string) (string, []string) {
	if p.OS == "darwin" && isDir {
		argv := []string{"-n", path}
		if len(args) > 0 {
			argv = append(argv, "--args")
			argv = append(argv, args...)
		}
		return "open", argv
	}

	if isDir {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		exe := stem
		if p.OS == "windows" {
			exe += ".exe"
		}
		return filepath.Join(path, exe), args
	}
	return path, args
}
