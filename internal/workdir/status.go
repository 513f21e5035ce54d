package workdir

import (
	"encoding/json"
	"os"
	"time"
)

// Status summarizes what the updater directory currently holds.
type Status struct {
	Root        string        `json:"root" yaml:"root"`
	Exists      bool          `json:"exists" yaml:"exists"`
	Pending     bool          `json:"pending" yaml:"pending"`
	PendingURL  string        `json:"pending_url,omitempty" yaml:"pending_url,omitempty"`
	Installed   bool          `json:"installed" yaml:"installed"`
	InstalledAt *time.Time    `json:"installed_at,omitempty" yaml:"installed_at,omitempty"`
	Staged      bool          `json:"staged" yaml:"staged"`
	Archives    []ArchiveInfo `json:"archives" yaml:"archives"`
}

// Status inspects the directory without modifying it.
func (d *Dir) Status() (*Status, error) {
	st := &Status{Root: d.root, Archives: []ArchiveInfo{}}

	if _, err := os.Stat(d.root); err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, err
	}
	st.Exists = true

	if data, err := os.ReadFile(d.ManifestPath()); err == nil {
		st.Pending = true
		var m struct {
			URL string `json:"url"`
		}
		if json.Unmarshal(data, &m) == nil {
			st.PendingURL = m.URL
		}
	}

	if info, err := os.Stat(d.MarkerPath()); err == nil {
		st.Installed = true
		at := info.ModTime()
		st.InstalledAt = &at
	}

	if entries, err := os.ReadDir(d.StagingPath()); err == nil && len(entries) > 0 {
		st.Staged = true
	}

	archives, err := d.Archives()
	if err != nil {
		return nil, err
	}
	st.Archives = archives

	return st, nil
}
