package interactive

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/adamancini/appupdater/internal/update"
)

// Runner runs a command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// AlertDialog shows prompts as desktop alerts. It serves runs without a
// terminal, such as the updater launched by a hand-off.
//
// macOS alerts go through osascript and support choices. Elsewhere
// notify-send shows a notification, so only single-action notices get an
// answer; prompts with several actions return NoChoice.
type AlertDialog struct {
	runner Runner
	goos   string
}

// NewAlertDialog creates an AlertDialog running its helpers through runner.
func NewAlertDialog(runner Runner) *AlertDialog {
	return &AlertDialog{runner: runner, goos: runtime.GOOS}
}

// Present implements update.Dialog.
func (d *AlertDialog) Present(pr update.Prompt) (int, error) {
	ctx := context.Background()
	switch d.goos {
	case "darwin":
		out, err := d.runner.Run(ctx, "osascript", "-e", alertScript(pr))
		if err != nil {
			return NoChoice, fmt.Errorf("failed to show alert: %w: %s", err, strings.TrimSpace(string(out)))
		}
		return buttonChoice(string(out), pr.Actions), nil
	case "windows":
		return NoChoice, fmt.Errorf("desktop alerts are not supported on %s", d.goos)
	default:
		args := []string{"--app-name", "appupdater"}
		if pr.Critical {
			args = append(args, "--urgency", "critical")
		}
		args = append(args, pr.Title, pr.Description)
		if out, err := d.runner.Run(ctx, "notify-send", args...); err != nil {
			return NoChoice, fmt.Errorf("failed to show notification: %w: %s", err, strings.TrimSpace(string(out)))
		}
		if len(pr.Actions) == 1 {
			return 0, nil
		}
		return NoChoice, nil
	}
}

// alertScript builds the AppleScript for pr. The first action is the
// default button.
func alertScript(pr update.Prompt) string {
	actions := pr.Actions
	if len(actions) == 0 {
		actions = []string{"OK"}
	}
	buttons := make([]string, len(actions))
	for i, a := range actions {
		buttons[i] = appleScriptString(a)
	}

	kind := "informational"
	if pr.Critical {
		kind = "critical"
	}
	return fmt.Sprintf("display alert %s message %s as %s buttons {%s} default button %s",
		appleScriptString(pr.Title), appleScriptString(pr.Description), kind,
		strings.Join(buttons, ", "), appleScriptString(actions[0]))
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func appleScriptString(s string) string {
	return `"` + appleScriptEscaper.Replace(s) + `"`
}

// buttonChoice maps osascript's "button returned:<name>" reply to an action
// index.
func buttonChoice(out string, actions []string) int {
	const prefix = "button returned:"
	i := strings.Index(out, prefix)
	if i < 0 {
		return NoChoice
	}
	name := out[i+len(prefix):]
	if j := strings.IndexAny(name, ",\n"); j >= 0 {
		name = name[:j]
	}
	name = strings.TrimSpace(name)
	for i, a := range actions {
		if a == name {
			return i
		}
	}
	return NoChoice
}
