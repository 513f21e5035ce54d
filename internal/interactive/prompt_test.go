package interactive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/adamancini/appupdater/internal/update"
)

var offer = update.Prompt{
	Title:       "An updated version of App is available.",
	Description: "Version 2.0 is available for download.",
	Actions:     []string{"Update Now", "Cancel"},
}

func TestPresent_Choices(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"first by number", "1\n", 0},
		{"second by number", "2\n", 1},
		{"by name", "cancel\n", 1},
		{"by name with spaces", "  Update Now \n", 0},
		{"out of range", "3\n", NoChoice},
		{"garbage", "maybe\n", NoChoice},
		{"empty", "\n", NoChoice},
		{"eof", "", NoChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			p := NewPrompterWithIO(strings.NewReader(tt.input), out)

			got, err := p.Present(offer)
			if err != nil {
				t.Fatalf("Present() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Present() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPresent_Output(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader("1\n"), out)

	if _, err := p.Present(offer); err != nil {
		t.Fatalf("Present() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{offer.Title, offer.Description, "1) Update Now", "2) Cancel", "Choose [1-2]"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestPresent_Notice(t *testing.T) {
	out := &bytes.Buffer{}
	// Input must not be consumed by a notice
	in := strings.NewReader("2\n")
	p := NewPrompterWithIO(in, out)

	got, err := p.Present(update.Prompt{
		Title:       "App could not be updated.",
		Description: "The download failed.",
		Actions:     []string{"OK"},
		Critical:    true,
	})
	if err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if got != 0 {
		t.Errorf("Present() = %d, want 0", got)
	}
	if strings.Contains(out.String(), "Choose") {
		t.Errorf("notice should not ask for a choice:\n%s", out.String())
	}

	got, _ = p.Present(offer)
	if got != 1 {
		t.Errorf("Present() after notice = %d, want 1", got)
	}
}

func TestPresent_AssumeYes(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader(""), out)
	p.SetAssumeYes(true)

	got, err := p.Present(offer)
	if err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if got != 0 {
		t.Errorf("Present() = %d, want 0", got)
	}
	if !strings.Contains(out.String(), "Update Now") {
		t.Errorf("output should name the assumed action:\n%s", out.String())
	}
}

func TestPresent_NotInteractive(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewPrompterWithIO(strings.NewReader("1\n"), out)
	p.interactive = false

	got, err := p.Present(offer)
	if err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if got != NoChoice {
		t.Errorf("Present() = %d, want %d", got, NoChoice)
	}
}

func TestPresent_NoActions(t *testing.T) {
	p := NewPrompterWithIO(strings.NewReader(""), &bytes.Buffer{})
	got, err := p.Present(update.Prompt{Title: "Hello"})
	if err != nil || got != NoChoice {
		t.Errorf("Present() = %d, %v; want %d, nil", got, err, NoChoice)
	}
}
