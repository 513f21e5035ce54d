package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adamancini/appupdater/internal/fsutil"
	"github.com/adamancini/appupdater/internal/workdir"
)

// State is a stage of the install pipeline
type State int

const (
	StateAwaitingManifest State = iota
	StateDownloading
	StateVerifying
	StateTerminating
	StateExtracting
	StateSwapping
	StateFinalizing
	StateRestarting
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StateAwaitingManifest: "awaiting_manifest",
	StateDownloading:      "downloading",
	StateVerifying:        "verifying",
	StateTerminating:      "terminating_running_instances",
	StateExtracting:       "extracting",
	StateSwapping:         "swapping",
	StateFinalizing:       "finalizing",
	StateRestarting:       "restarting",
	StateSucceeded:        "succeeded",
	StateFailed:           "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultTerminateTimeout bounds how long running instances may take to exit
const DefaultTerminateTimeout = 30 * time.Second

// InstallerOptions configures an Installer
type InstallerOptions struct {
	AppName          string        // Display name used in messages
	Identifiers      []string      // Processes to stop before swapping
	InstallDir       string        // Where the bundle is installed
	BundleSuffix     string        // Suffix identifying the bundle in the archive
	DownloadTimeout  time.Duration // Bound on the archive download
	TerminateTimeout time.Duration // Bound on waiting for running instances
	SkipRestart      bool          // Do not launch the app after installing
}

// Result is the outcome of an install run
type Result struct {
	State         State  // StateSucceeded or StateFailed
	Stage         State  // Last stage entered
	Installed     bool   // The new bundle is in place
	InstalledPath string // Path of the installed bundle
	Err           error
}

// Installer runs the download, verify, extract and swap pipeline for a
// handoff manifest left in the updater directory.
type Installer struct {
	dir        *workdir.Dir
	procs      ProcessController
	dialog     Dialog
	opts       InstallerOptions
	downloader ArchiveDownloader
	replacer   *BundleReplacer
	platform   Platform
	log        *log.Logger
}

// InstallerOption customizes an Installer
type InstallerOption func(*Installer)

// WithInstallerLogger sets the logger
func WithInstallerLogger(l *log.Logger) InstallerOption {
	return func(in *Installer) {
		in.log = l
	}
}

// WithDownloader replaces the archive downloader
func WithDownloader(d ArchiveDownloader) InstallerOption {
	return func(in *Installer) {
		in.downloader = d
	}
}

// WithPlatform overrides the detected platform
func WithPlatform(p Platform) InstallerOption {
	return func(in *Installer) {
		in.platform = p
	}
}

// NewInstaller creates an Installer working in dir
func NewInstaller(dir *workdir.Dir, procs ProcessController, dialog Dialog, opts InstallerOptions, options ...InstallerOption) *Installer {
	if opts.BundleSuffix == "" {
		opts.BundleSuffix = DefaultBundleSuffix
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = DefaultDownloadTimeout
	}
	if opts.TerminateTimeout <= 0 {
		opts.TerminateTimeout = DefaultTerminateTimeout
	}
	platform := Detect()
	if opts.InstallDir == "" {
		opts.InstallDir = platform.DefaultInstallDir()
	}

	in := &Installer{
		dir:        dir,
		procs:      procs,
		dialog:     dialog,
		opts:       opts,
		downloader: NewHTTPDownloader(opts.DownloadTimeout),
		replacer:   NewBundleReplacer(opts.InstallDir),
		platform:   platform,
		log:        log.New(io.Discard),
	}
	for _, o := range options {
		o(in)
	}
	return in
}

// Run executes the pipeline once. Failures are presented through the dialog
// before Run returns.
func (in *Installer) Run(ctx context.Context) *Result {
	res := &Result{}

	in.log.Info("Configured for bundles", "app", in.opts.AppName, "identifiers", strings.Join(in.opts.Identifiers, ", "))
	in.log.Info("Updater directory set to", "path", in.dir.Root())

	// 1. Read the handoff manifest
	in.enter(res, StateAwaitingManifest)
	manifest, err := ReadHandoffManifest(in.dir.ManifestPath())
	if err != nil {
		return in.fail(res, err)
	}

	lock, err := in.dir.TryLock()
	if err != nil {
		if errors.Is(err, workdir.ErrAlreadyLocked) {
			return in.fail(res, newFailure(KindUpdateInProgress, "another updater is running", err))
		}
		return in.fail(res, newFailure(KindInstallDirectoryUnwritable, "failed to lock updater directory", err))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			in.log.Warn("Failed to release updater lock", "err", err)
		}
	}()

	// 2. Download the archive
	in.enter(res, StateDownloading)
	if pruned, err := in.dir.PruneArchives(0); err != nil {
		return in.fail(res, newFailure(KindInstallDirectoryUnwritable, "failed to remove stale archives", err))
	} else if len(pruned.Deleted) > 0 {
		in.log.Debug("Removed stale archives", "count", len(pruned.Deleted))
	}
	in.log.Info("Downloading update", "url", manifest.URL)
	dctx, cancel := context.WithTimeout(ctx, in.opts.DownloadTimeout)
	archive, err := in.downloader.Download(dctx, manifest.URL, in.dir.Root())
	cancel()
	if err != nil {
		return in.fail(res, withKind(err, KindDownloadFailed, "failed to download update"))
	}

	// 3. Verify the checksum
	in.enter(res, StateVerifying)
	in.log.Info("Comparing checksums", "expected", manifest.SHA256)
	if err := VerifyChecksum(archive, manifest.SHA256); err != nil {
		var ce *ChecksumError
		if errors.As(err, &ce) {
			in.log.Error("Checksum mismatch", "expected", ce.Expected, "actual", ce.Got)
		}
		return in.fail(res, err)
	}

	// 4. Stop running instances
	in.enter(res, StateTerminating)
	if len(in.opts.Identifiers) > 0 {
		tctx, cancel := context.WithTimeout(ctx, in.opts.TerminateTimeout)
		err := in.procs.Terminate(tctx, in.opts.Identifiers)
		cancel()
		if err != nil {
			return in.fail(res, withKind(err, KindTerminationFailed, "failed to stop running instances"))
		}
	}

	// 5. Extract into a fresh staging directory
	in.enter(res, StateExtracting)
	staging, err := in.dir.ResetStaging()
	if err != nil {
		return in.fail(res, newFailure(KindInstallDirectoryUnwritable, "failed to prepare staging directory", err))
	}
	if err := ExtractArchive(archive, staging); err != nil {
		return in.fail(res, err)
	}
	bundle, err := FindBundle(staging, in.opts.BundleSuffix)
	if err != nil {
		return in.fail(res, err)
	}
	in.log.Info("Finished extracting", "bundle", bundle)

	// 6. Swap the bundle into place
	in.enter(res, StateSwapping)
	installed, err := in.replacer.Replace(bundle)
	if err != nil {
		return in.fail(res, err)
	}
	res.Installed = true
	res.InstalledPath = installed
	in.log.Info("Installed bundle", "path", installed)

	// 7. Clean up and leave the success marker
	in.enter(res, StateFinalizing)
	in.finalize(archive)
	res.State = StateSucceeded

	// 8. Start the new version
	if in.opts.SkipRestart {
		return res
	}
	in.enter(res, StateRestarting)
	if err := in.restart(installed); err != nil {
		return in.fail(res, err)
	}
	return res
}

func (in *Installer) enter(res *Result, stage State) {
	res.Stage = stage
	in.log.Debug("Entering stage", "stage", stage)
}

func (in *Installer) finalize(archive string) {
	if err := os.Remove(archive); err != nil && !os.IsNotExist(err) {
		in.log.Warn("Failed to remove archive", "path", archive, "err", err)
	}
	if err := os.Remove(in.dir.ManifestPath()); err != nil && !os.IsNotExist(err) {
		in.log.Warn("Failed to remove handoff manifest", "err", err)
	}
	if err := fsutil.Touch(in.dir.MarkerPath()); err != nil {
		in.log.Warn("Failed to write install marker", "err", err)
	}
}

func (in *Installer) restart(installed string) error {
	info, err := os.Stat(installed)
	if err != nil {
		return newFailure(KindProcessLaunchFailed, "installed bundle is missing", err)
	}
	name, args := in.platform.LaunchCommand(installed, info.IsDir())
	in.log.Info("Restarting", "command", name)
	if err := in.procs.Launch(name, args...); err != nil {
		return newFailure(KindProcessLaunchFailed, fmt.Sprintf("failed to launch %s", installed), err)
	}
	return nil
}

// fail records err on res and presents it to the user
func (in *Installer) fail(res *Result, err error) *Result {
	res.State = StateFailed
	res.Err = err
	kind := KindOf(err)
	in.log.Error("Update failed", "stage", res.Stage, "kind", kind, "err", err)

	if in.dialog != nil {
		_, derr := in.dialog.Present(Prompt{
			Title:       fmt.Sprintf("%s could not be updated.", in.opts.AppName),
			Description: Describe(kind, in.opts.AppName, in.dir.Root()),
			Actions:     []string{"OK"},
			Critical:    true,
		})
		if derr != nil {
			in.log.Warn("Failed to present failure", "err", derr)
		}
	}
	return res
}

// withKind tags err with kind unless it already carries one
func withKind(err error, kind Kind, message string) error {
	if KindOf(err) != KindUnknown {
		return err
	}
	return newFailure(kind, message, err)
}
