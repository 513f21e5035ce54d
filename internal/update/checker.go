package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adamancini/appupdater/internal/fsutil"
	"github.com/adamancini/appupdater/internal/workdir"
)

// osExecutable is replaceable in tests
var osExecutable = os.Executable

// CheckStatus is the outcome of an update check
type CheckStatus string

const (
	StatusUnavailable CheckStatus = "unavailable"
	StatusUpToDate    CheckStatus = "up_to_date"
	StatusDeclined    CheckStatus = "declined"
	StatusHandedOff   CheckStatus = "handed_off"
)

// CheckResult describes what an update check found and did
type CheckResult struct {
	Status        CheckStatus `json:"status" yaml:"status"`
	LocalVersion  string      `json:"local_version,omitempty" yaml:"local_version,omitempty"`
	RemoteVersion string      `json:"remote_version,omitempty" yaml:"remote_version,omitempty"`
	URL           string      `json:"url,omitempty" yaml:"url,omitempty"`
	Reason        string      `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CheckerConfig holds the collaborators of a Checker
type CheckerConfig struct {
	AppName       string            // Display name used in messages
	UpdaterDir    *workdir.Dir      // Shared updater directory
	UpdaterSource string            // Updater executable or bundle; defaults to this executable
	UpdaterArgs   []string          // Arguments passed to the launched updater
	Versions      VersionProvider   // Installed version
	Dialog        Dialog            // User prompts
	Procs         ProcessController // Launches the updater
	FeedTimeout   time.Duration     // Bound on descriptor retrieval
}

// Checker compares the installed version with a remote descriptor and hands
// accepted updates off to the updater process.
type Checker struct {
	cfg      CheckerConfig
	client   *http.Client
	platform Platform
	log      *log.Logger
}

// CheckerOption customizes a Checker
type CheckerOption func(*Checker)

// WithHTTPClient sets the client used to fetch descriptors
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) {
		c.client = client
	}
}

// WithCheckerLogger sets the logger
func WithCheckerLogger(l *log.Logger) CheckerOption {
	return func(c *Checker) {
		c.log = l
	}
}

// WithCheckerPlatform overrides the detected platform
func WithCheckerPlatform(p Platform) CheckerOption {
	return func(c *Checker) {
		c.platform = p
	}
}

// NewChecker creates a Checker
func NewChecker(cfg CheckerConfig, opts ...CheckerOption) *Checker {
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = DefaultFeedTimeout
	}
	c := &Checker{
		cfg:      cfg,
		client:   NewHTTPClient(cfg.FeedTimeout),
		platform: Detect(),
		log:      log.New(io.Discard),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Check fetches the descriptor at descriptorURL and offers the update when it
// is newer than the installed version. With promptOnFailure the user also
// hears about failures and about being up to date; otherwise those outcomes
// are only logged. The returned error is set only when an accepted update
// could not be handed off.
func (c *Checker) Check(ctx context.Context, descriptorURL string, promptOnFailure bool) (*CheckResult, error) {
	desc, err := FetchPackageDescriptor(ctx, c.client, descriptorURL)
	if err != nil {
		return c.unavailable(err, promptOnFailure), nil
	}

	remote, err := ParseVersion(desc.Version)
	if err != nil {
		return c.unavailable(fmt.Errorf("invalid remote version: %w", err), promptOnFailure), nil
	}

	installed, err := c.cfg.Versions.InstalledVersion(ctx)
	if err != nil {
		return c.unavailable(newFailure(KindVersionUnparseable, "failed to read installed version", err), promptOnFailure), nil
	}
	local, err := ParseVersion(installed)
	if err != nil {
		return c.unavailable(fmt.Errorf("invalid installed version: %w", err), promptOnFailure), nil
	}

	res := &CheckResult{
		LocalVersion:  local.String(),
		RemoteVersion: remote.String(),
		URL:           desc.URL,
	}
	c.log.Info("Comparing versions", "installed", local, "available", remote)

	if !remote.IsGreaterThan(local) {
		c.log.Info("Version is up-to-date!")
		res.Status = StatusUpToDate
		if promptOnFailure {
			c.present(Prompt{
				Title:       "The app is up-to-date!",
				Description: "The version on the server is not newer than this version, so you're all good.",
				Actions:     []string{"OK"},
			})
		}
		return res, nil
	}

	c.log.Info("A newer version is available!")
	choice := c.present(Prompt{
		Title: fmt.Sprintf("An updated version of %s is available.", c.cfg.AppName),
		Description: fmt.Sprintf("Version %s is available for download.\n(This is currently version %s.)\n\nDo you want to download and install this updated version?",
			remote, local),
		Actions: []string{"Update Now", "Cancel"},
	})
	if choice != 0 {
		c.log.Info("Update declined")
		res.Status = StatusDeclined
		return res, nil
	}

	if err := c.handOff(desc); err != nil {
		c.log.Error("Failed to launch updater", "err", err)
		c.present(Prompt{
			Title:       fmt.Sprintf("%s could not be updated.", c.cfg.AppName),
			Description: c.handOffFailure(err),
			Actions:     []string{"OK"},
			Critical:    true,
		})
		res.Status = StatusUnavailable
		res.Reason = err.Error()
		return res, err
	}

	res.Status = StatusHandedOff
	return res, nil
}

func (c *Checker) unavailable(err error, prompt bool) *CheckResult {
	c.log.Warn("Could not retrieve update manifest!", "err", err)
	if prompt {
		c.present(Prompt{
			Title:       "Could not retrieve update information!",
			Description: "There was an issue retrieving information about possible updates. This could be a connection or server issue. Check your internet connection and try again later.",
			Actions:     []string{"OK"},
		})
	}
	return &CheckResult{Status: StatusUnavailable, Reason: err.Error()}
}

// handOffFailure explains a failed hand-off. A launch failure here means the
// updater, not the app, did not start.
func (c *Checker) handOffFailure(err error) string {
	if IsKind(err, KindProcessLaunchFailed) {
		return "The updater could not be started. Please try updating again later."
	}
	return Describe(KindOf(err), c.cfg.AppName, c.cfg.UpdaterDir.Root())
}

// present shows p and returns the chosen action, or -1
func (c *Checker) present(p Prompt) int {
	if c.cfg.Dialog == nil {
		return -1
	}
	choice, err := c.cfg.Dialog.Present(p)
	if err != nil {
		c.log.Warn("Failed to present prompt", "title", p.Title, "err", err)
		return -1
	}
	return choice
}

// handOff leaves a manifest for desc in the updater directory, installs the
// updater there and launches it detached.
func (c *Checker) handOff(desc *PackageDescriptor) error {
	dir := c.cfg.UpdaterDir

	// 1. Prepare the updater directory
	if err := dir.Ensure(); err != nil {
		return newFailure(KindInstallDirectoryUnwritable, "failed to create updater directory", err)
	}
	if err := dir.ClearMarker(); err != nil {
		c.log.Warn("Failed to clear previous install marker", "err", err)
	}

	// 2. Write the handoff manifest
	manifest := &HandoffManifest{URL: desc.URL, SHA256: desc.SHA256}
	if err := WriteHandoffManifest(dir.ManifestPath(), manifest); err != nil {
		return newFailure(KindInstallDirectoryUnwritable, "failed to write handoff manifest", err)
	}
	c.log.Info("Wrote handoff manifest", "path", dir.ManifestPath())

	// 3. Install the updater
	updater, err := c.installUpdater()
	if err != nil {
		return newFailure(KindInstallDirectoryUnwritable, "failed to install updater", err)
	}

	// 4. Launch it
	info, err := os.Stat(updater)
	if err != nil {
		return newFailure(KindProcessLaunchFailed, "updater is missing", err)
	}
	name, args := c.platform.LaunchCommand(updater, info.IsDir(), c.cfg.UpdaterArgs...)
	c.log.Info("Launching updater", "command", name, "args", args)
	if err := c.cfg.Procs.Launch(name, args...); err != nil {
		return newFailure(KindProcessLaunchFailed, "failed to launch updater", err)
	}
	return nil
}

// installUpdater copies the updater into the updater directory unless a copy
// is already there, and returns the path of the copy.
func (c *Checker) installUpdater() (string, error) {
	src := c.cfg.UpdaterSource
	if src == "" {
		exe, err := osExecutable()
		if err != nil {
			return "", fmt.Errorf("failed to locate updater: %w", err)
		}
		src = exe
	}

	dst := c.cfg.UpdaterDir.Path(filepath.Base(src))
	if fsutil.Exists(dst) {
		return dst, nil
	}
	if err := fsutil.Copy(src, dst); err != nil {
		return "", err
	}
	c.log.Info("Installed updater", "path", dst)
	return dst, nil
}
