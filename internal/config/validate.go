package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the values that are present. Settings needed only by one
// command are checked by ValidateCheck and ValidateInstall.
func Validate(c *Config) error {
	var errs []error

	for i, id := range c.App.Identifiers {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("app.identifiers[%d]", i),
				Message: "identifier cannot be empty",
			})
		}
	}

	if c.Feed.URL != "" {
		if err := validateURL(c.Feed.URL); err != nil {
			errs = append(errs, ValidationError{Field: "feed.url", Message: err.Error()})
		}
	}

	durations := []struct {
		field string
		value string
	}{
		{"feed.timeout", c.Feed.Timeout},
		{"download.timeout", c.Download.Timeout},
		{"terminate.timeout", c.Terminate.Timeout},
	}
	for _, d := range durations {
		if err := validateDuration(d.value); err != nil {
			errs = append(errs, ValidationError{Field: d.field, Message: err.Error()})
		}
	}

	if s := c.Install.BundleSuffix; s != "" && !strings.HasPrefix(s, ".") {
		errs = append(errs, ValidationError{
			Field:   "install.bundle_suffix",
			Message: fmt.Sprintf("suffix %q must start with a dot", s),
		})
	}

	return joinErrors(errs)
}

// ValidateCheck checks the settings the check command needs.
func ValidateCheck(c *Config) error {
	var errs []error
	if c.Feed.URL == "" {
		errs = append(errs, ValidationError{Field: "feed.url", Message: "url is required"})
	}
	if c.App.Version == "" && len(c.App.VersionCommand) == 0 && c.App.BundlePath == "" {
		errs = append(errs, ValidationError{
			Field:   "app",
			Message: "one of version, version_command or bundle_path is required",
		})
	}
	return joinErrors(append(errs, requireName(c)...))
}

// ValidateInstall checks the settings the install command needs.
func ValidateInstall(c *Config) error {
	return joinErrors(requireName(c))
}

func requireName(c *Config) []error {
	if strings.TrimSpace(c.App.Name) == "" {
		return []error{ValidationError{Field: "app.name", Message: "name is required"}}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "file", "":
		return nil
	}
	switch {
	case len(u.Scheme) == 1:
		// Windows drive letter
		return nil
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func validateDuration(s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return fmt.Errorf("duration %q must be positive", s)
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
}
