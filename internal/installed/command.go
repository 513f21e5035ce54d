package installed

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/adamancini/appupdater/internal/process"
)

// versionPattern matches the first dotted numeric run in command output
var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)*`)

// CommandReader reads the version by running the installed program,
// typically with --version.
type CommandReader struct {
	runner process.CommandRunner
	name   string
	args   []string
}

// NewCommandReader creates a reader running name with args.
func NewCommandReader(runner process.CommandRunner, name string, args ...string) *CommandReader {
	if runner == nil {
		runner = &process.DefaultCommandRunner{}
	}
	return &CommandReader{runner: runner, name: name, args: args}
}

// InstalledVersion implements update.VersionProvider.
func (r *CommandReader) InstalledVersion(ctx context.Context) (string, error) {
	output, err := r.runner.Run(ctx, r.name, r.args...)
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w", r.name, err)
	}
	version := ExtractVersion(string(output))
	if version == "" {
		return "", fmt.Errorf("no version found in output of %s: %q", r.name, strings.TrimSpace(string(output)))
	}
	return version, nil
}

// ExtractVersion returns the first dotted numeric version in text.
// Output such as "App version 2.1.0 (build 412)" yields "2.1.0".
func ExtractVersion(text string) string {
	return versionPattern.FindString(text)
}
