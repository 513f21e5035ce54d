package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("feed-url", "", "")
	fs.String("dir", "", "")
	fs.StringSlice("identifier", nil, "")
	fs.String("app-name", "", "")
	return fs
}

func TestResolve_FileOnly(t *testing.T) {
	cfg := Default()
	cfg.App.Name = "App"
	cfg.Feed.URL = "https://example.com/app.rb"

	got, err := Resolve(cfg, testFlags())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.App.Name != "App" || got.Feed.URL != "https://example.com/app.rb" {
		t.Errorf("Resolve() = %+v", got)
	}
	if got.Download.Timeout != DefaultDownloadTimeout {
		t.Errorf("Download.Timeout = %q", got.Download.Timeout)
	}
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	t.Setenv("APPUPDATER_FEED_URL", "https://mirror.example.com/app.rb")
	t.Setenv("APPUPDATER_DOWNLOAD_TIMEOUT", "1m")

	cfg := Default()
	cfg.Feed.URL = "https://example.com/app.rb"

	got, err := Resolve(cfg, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Feed.URL != "https://mirror.example.com/app.rb" {
		t.Errorf("Feed.URL = %q", got.Feed.URL)
	}
	if got.DownloadTimeout().String() != "1m0s" {
		t.Errorf("DownloadTimeout() = %v", got.DownloadTimeout())
	}
}

func TestResolve_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("APPUPDATER_FEED_URL", "https://mirror.example.com/app.rb")

	fs := testFlags()
	if err := fs.Parse([]string{"--feed-url", "https://flag.example.com/app.rb", "--identifier", "App", "--identifier", "com.example.app"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got, err := Resolve(Default(), fs)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Feed.URL != "https://flag.example.com/app.rb" {
		t.Errorf("Feed.URL = %q", got.Feed.URL)
	}
	if len(got.App.Identifiers) != 2 || got.App.Identifiers[0] != "App" || got.App.Identifiers[1] != "com.example.app" {
		t.Errorf("App.Identifiers = %v", got.App.Identifiers)
	}
}

func TestResolve_UnchangedFlagsKeepFile(t *testing.T) {
	cfg := Default()
	cfg.Updater.Directory = "/var/lib/app/updater"

	got, err := Resolve(cfg, testFlags())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Updater.Directory != "/var/lib/app/updater" {
		t.Errorf("Updater.Directory = %q", got.Updater.Directory)
	}
}

func TestResolve_Invalid(t *testing.T) {
	t.Setenv("APPUPDATER_TERMINATE_TIMEOUT", "never")
	if _, err := Resolve(Default(), nil); err == nil {
		t.Error("Resolve() expected validation error")
	}
}
