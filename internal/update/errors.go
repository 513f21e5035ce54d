package update

import (
	"errors"
	"fmt"
)

// Kind classifies why an update step failed
type Kind string

const (
	KindManifestUnavailable        Kind = "manifest_unavailable"
	KindVersionUnparseable         Kind = "version_unparseable"
	KindDownloadFailed             Kind = "download_failed"
	KindChecksumMismatch           Kind = "checksum_mismatch"
	KindTerminationFailed          Kind = "termination_failed"
	KindExtractionFailed           Kind = "extraction_failed"
	KindInstallDirectoryUnwritable Kind = "install_directory_unwritable"
	KindProcessLaunchFailed        Kind = "process_launch_failed"
	KindUpdateInProgress           Kind = "update_in_progress"
	KindUnknown                    Kind = "unknown"
)

// ErrChecksumMismatch is the sentinel every ChecksumError unwraps to
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Failure is an error carrying a Kind
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind Kind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first Failure in err's chain
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, ErrChecksumMismatch) {
		return KindChecksumMismatch
	}
	return KindUnknown
}

// IsKind reports whether err carries the given Kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ChecksumError reports a digest mismatch for a downloaded file
type ChecksumError struct {
	Path     string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// Describe returns the user-facing explanation for a failed update.
// appName and updaterDir fill in the messages that mention them.
func Describe(kind Kind, appName, updaterDir string) string {
	switch kind {
	case KindManifestUnavailable:
		return fmt.Sprintf("The manifest file for a potential update was not found. Please try searching for updates again in %s.", appName)
	case KindVersionUnparseable:
		return "The version information for the update could not be read. Please try again later."
	case KindDownloadFailed:
		return "The update could not be downloaded, or the file was not correctly written to disk.\n\nPlease try again.\n\n(Note that the download will time-out after 20 seconds, so for slow connections it is recommended to manually download the update.)"
	case KindChecksumMismatch:
		return "The downloaded update failed checksum validation. Please try again. If this issue persists, there may be an issue with the server and upgrading is not recommended."
	case KindTerminationFailed:
		return fmt.Sprintf("%s could not be closed. Quit it manually and try updating again.", appName)
	case KindExtractionFailed:
		return fmt.Sprintf("The downloaded file could not be extracted. The automatic updater will quit. Make sure that `%s` is writeable.", updaterDir)
	case KindInstallDirectoryUnwritable:
		return fmt.Sprintf("The updater directory is missing or the app could not be moved into place. The automatic updater will quit. Make sure that `%s` is writeable.", updaterDir)
	case KindProcessLaunchFailed:
		return fmt.Sprintf("%s was updated but could not be started. Please open it manually.", appName)
	case KindUpdateInProgress:
		return "Another update is already being installed. Please wait for it to finish."
	default:
		return "An unexpected error occurred while updating."
	}
}
