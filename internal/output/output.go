// Package output handles formatting output in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adamancini/appupdater/internal/update"
	"github.com/adamancini/appupdater/internal/workdir"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer handles output in the specified format.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// Write outputs v in the configured format. Text output uses the
// renderers below for known types and %+v otherwise.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	var text string
	switch t := v.(type) {
	case *update.CheckResult:
		text = CheckText(t)
	case *workdir.Status:
		text = StatusText(t)
	case fmt.Stringer:
		text = t.String()
	default:
		text = fmt.Sprintf("%+v", v)
	}
	_, err := fmt.Fprintln(w.w, strings.TrimRight(text, "\n"))
	return err
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// CheckText renders a check result for humans.
func CheckText(r *update.CheckResult) string {
	var b strings.Builder
	switch r.Status {
	case update.StatusUpToDate:
		fmt.Fprintf(&b, "Up to date (installed %s, available %s)\n", r.LocalVersion, r.RemoteVersion)
	case update.StatusDeclined:
		fmt.Fprintf(&b, "Update to %s declined (installed %s)\n", r.RemoteVersion, r.LocalVersion)
	case update.StatusHandedOff:
		fmt.Fprintf(&b, "Updating %s -> %s\n", r.LocalVersion, r.RemoteVersion)
		fmt.Fprintf(&b, "  Archive: %s\n", r.URL)
	default:
		b.WriteString("Update information unavailable\n")
	}
	if r.Reason != "" {
		fmt.Fprintf(&b, "  Reason: %s\n", r.Reason)
	}
	return b.String()
}

// StatusText renders the updater directory status for humans.
func StatusText(s *workdir.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Updater directory: %s\n", s.Root)
	if !s.Exists {
		b.WriteString("  (not created yet)\n")
		return b.String()
	}

	if s.Pending {
		fmt.Fprintf(&b, "  Pending update: %s\n", s.PendingURL)
	} else {
		b.WriteString("  Pending update: none\n")
	}
	if s.Installed && s.InstalledAt != nil {
		fmt.Fprintf(&b, "  Last install: %s\n", s.InstalledAt.Format(time.RFC3339))
	}
	if s.Staged {
		b.WriteString("  Staging directory is not empty\n")
	}
	if len(s.Archives) > 0 {
		fmt.Fprintf(&b, "  Archives (%d):\n", len(s.Archives))
		for _, a := range s.Archives {
			fmt.Fprintf(&b, "    %s  %s  %s\n", a.Name, humanSize(a.Size), a.ModifiedAt.Format(time.RFC3339))
		}
	}
	return b.String()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
