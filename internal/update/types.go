package update

import "context"

// PackageDescriptor describes a remotely published app bundle
type PackageDescriptor struct {
	Name       string            // Package name
	URL        string            // Download URL of the zip archive
	SHA256     string            // Expected hex digest of the archive
	Version    string            // Published version
	Properties map[string]string // Every key found in the descriptor
}

// HandoffManifest is the document the checker leaves for the updater
type HandoffManifest struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
}

// Prompt is a single dialog shown to the user
type Prompt struct {
	Title       string
	Description string
	Actions     []string // Named actions; index is the returned choice
	Critical    bool     // Rendered as an error rather than a notice
}

// Dialog presents prompts to the user.
// Present returns the index of the chosen action, or -1 when none was chosen.
type Dialog interface {
	Present(p Prompt) (int, error)
}

// ProcessController stops running app instances and starts new processes
type ProcessController interface {
	// Terminate stops every process matching one of the identifiers and
	// waits until they have exited.
	Terminate(ctx context.Context, identifiers []string) error
	// Launch starts path detached from the caller.
	Launch(path string, args ...string) error
}

// VersionProvider reports the version of the installed app
type VersionProvider interface {
	InstalledVersion(ctx context.Context) (string, error)
}

// ArchiveDownloader retrieves an update archive into a directory and returns
// the path of the downloaded file
type ArchiveDownloader interface {
	Download(ctx context.Context, rawURL, dir string) (string, error)
}
