// Package notify delivers the final user-facing result. Failures are always
// written to the log before a notification is attempted, so the log stays
// authoritative when no notification mechanism is available.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// Notifier shows a desktop notification when one is available and falls
// back to plain text otherwise (headless execution).
type Notifier struct {
	Out io.Writer

	goos       string
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New() *Notifier {
	return &Notifier{
		Out:  os.Stderr,
		goos: runtime.GOOS,
		runCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Notify never fails; an undeliverable notification degrades to text output.
func (n *Notifier) Notify(ctx context.Context, title, message string) {
	if n.goos == "darwin" {
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		if _, err := n.runCommand(ctx, "osascript", "-e", script); err == nil {
			return
		}
		log.Debug("osascript notification failed, falling back to text output")
	}
	fmt.Fprintf(n.Out, "%s: %s\n", title, message)
}
