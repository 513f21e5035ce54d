// Package process stops running app instances and launches detached processes.
package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gops "github.com/shirou/gopsutil/v4/process"
	"gopkg.in/retry.v1"
)

const (
	// DefaultGracePeriod is how long processes get to exit after a terminate request
	DefaultGracePeriod = 10 * time.Second
	// DefaultKillWait is how long killed processes get to disappear
	DefaultKillWait = 5 * time.Second
)

// Process is a running process as seen by the controller
type Process struct {
	PID  int32
	Name string
	Exe  string
}

// Controller terminates processes by identifier and launches new ones
type Controller struct {
	runner      CommandRunner
	list        func(ctx context.Context) ([]Process, error)
	signal      func(ctx context.Context, pid int32, kill bool) error
	self        int32
	goos        string
	gracePeriod time.Duration
	killWait    time.Duration
	pollDelay   time.Duration
	log         *log.Logger
}

// NewController creates a Controller backed by the operating system.
func NewController(logger *log.Logger) *Controller {
	c := NewControllerWithRunner(&DefaultCommandRunner{})
	if logger != nil {
		c.log = logger
	}
	return c
}

// NewControllerWithRunner creates a Controller with a custom command runner (for testing).
func NewControllerWithRunner(runner CommandRunner) *Controller {
	return &Controller{
		runner:      runner,
		list:        listProcesses,
		signal:      signalProcess,
		self:        int32(os.Getpid()),
		goos:        runtime.GOOS,
		gracePeriod: DefaultGracePeriod,
		killWait:    DefaultKillWait,
		pollDelay:   100 * time.Millisecond,
		log:         log.New(io.Discard),
	}
}

// Launch starts name detached from the current process.
func (c *Controller) Launch(name string, args ...string) error {
	c.log.Debug("Launching", "command", name, "args", args)
	return c.runner.Start(name, args...)
}

// Terminate asks every process matching one of identifiers to exit and
// waits until none remain, escalating to a kill after the grace period.
// The calling process is never matched.
func (c *Controller) Terminate(ctx context.Context, identifiers []string) error {
	running, err := c.find(ctx, identifiers)
	if err != nil {
		return err
	}
	if len(running) == 0 {
		c.log.Debug("No running instances", "identifiers", identifiers)
		return nil
	}

	// 1. Ask nicely
	c.requestQuit(ctx, identifiers)
	for _, p := range running {
		c.log.Info("Terminating", "pid", p.PID, "name", p.Name)
		if err := c.signal(ctx, p.PID, false); err != nil {
			c.log.Debug("Terminate request failed", "pid", p.PID, "err", err)
		}
	}
	if c.waitGone(ctx, identifiers, c.gracePeriod) {
		return nil
	}

	// 2. Kill whatever is left
	remaining, err := c.find(ctx, identifiers)
	if err != nil {
		return err
	}
	for _, p := range remaining {
		c.log.Warn("Killing", "pid", p.PID, "name", p.Name)
		if err := c.signal(ctx, p.PID, true); err != nil {
			c.log.Debug("Kill failed", "pid", p.PID, "err", err)
		}
	}
	if c.waitGone(ctx, identifiers, c.killWait) {
		return nil
	}

	remaining, _ = c.find(ctx, identifiers)
	pids := make([]string, 0, len(remaining))
	for _, p := range remaining {
		pids = append(pids, fmt.Sprint(p.PID))
	}
	return fmt.Errorf("processes still running: %s", strings.Join(pids, ", "))
}

// requestQuit asks macOS apps identified by bundle identifier to quit.
func (c *Controller) requestQuit(ctx context.Context, identifiers []string) {
	if c.goos != "darwin" {
		return
	}
	for _, id := range identifiers {
		if !strings.Contains(id, ".") {
			continue
		}
		script := fmt.Sprintf(`tell application id %q to quit`, id)
		if out, err := c.runner.Run(ctx, "osascript", "-e", script); err != nil {
			c.log.Debug("Quit request failed", "id", id, "err", err, "output", strings.TrimSpace(string(out)))
		}
	}
}

// waitGone polls until no process matches identifiers or limit elapses.
func (c *Controller) waitGone(ctx context.Context, identifiers []string, limit time.Duration) bool {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < limit {
			limit = left
		}
	}
	strategy := retry.LimitTime(limit, retry.Exponential{
		Initial:  c.pollDelay,
		Factor:   1.5,
		MaxDelay: time.Second,
	})
	for a := retry.Start(strategy, nil); a.Next(); {
		if ctx.Err() != nil {
			return false
		}
		running, err := c.find(ctx, identifiers)
		if err == nil && len(running) == 0 {
			return true
		}
	}
	return false
}

// find returns the processes matching any of identifiers.
func (c *Controller) find(ctx context.Context, identifiers []string) ([]Process, error) {
	all, err := c.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var matched []Process
	for _, p := range all {
		if p.PID == c.self {
			continue
		}
		for _, id := range identifiers {
			if Matches(p, id) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched, nil
}

// Matches reports whether p is identified by id: its name, its executable's
// base name, or a directory component of its executable path.
func Matches(p Process, id string) bool {
	if id == "" {
		return false
	}
	if p.Name == id {
		return true
	}
	if p.Exe == "" {
		return false
	}
	exe := filepath.ToSlash(p.Exe)
	if filepath.Base(p.Exe) == id {
		return true
	}
	return strings.Contains(exe, "/"+id+"/")
}

func listProcesses(ctx context.Context) ([]Process, error) {
	procs, err := gops.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		// Name and Exe fail for processes owned by other users; keep what we get.
		name, _ := p.NameWithContext(ctx)
		exe, _ := p.ExeWithContext(ctx)
		out = append(out, Process{PID: p.Pid, Name: name, Exe: exe})
	}
	return out, nil
}

func signalProcess(ctx context.Context, pid int32, kill bool) error {
	p, err := gops.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	if kill {
		return p.KillWithContext(ctx)
	}
	return p.TerminateWithContext(ctx)
}
