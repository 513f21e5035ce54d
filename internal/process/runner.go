package process

import (
	"context"
	"fmt"
	"os/exec"
)

// CommandRunner is an interface for running external commands.
// This allows for mocking in tests.
type CommandRunner interface {
	// Run executes a command and waits for it, returning combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches a command detached from the caller and does not wait.
	Start(name string, args ...string) error
}

// DefaultCommandRunner uses os/exec to run commands.
type DefaultCommandRunner struct{}

// Run executes a command in the current directory.
func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Start launches a command in its own session so it outlives the caller.
func (r *DefaultCommandRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release %s: %w", name, err)
	}
	return nil
}
