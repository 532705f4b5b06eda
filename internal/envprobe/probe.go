// Package envprobe forces the installer into its canonical execution
// context. On Apple silicon the installer may be started under Rosetta by a
// GUI wrapper; everything the installer registers must run natively, so the
// whole process is re-launched under the target architecture exactly once.
package envprobe

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// reexecMarker guards the one-shot relaunch. If it is already set and the
// architecture still does not match, something is wrong with the host and we
// fail instead of looping.
const reexecMarker = "STARHOP_REEXECED"

var (
	// ErrRelaunchFailed reports that the controlled process replacement
	// could not be performed. Mapped to its own exit code so a GUI wrapper
	// can show the Rosetta/architecture remediation dialog.
	ErrRelaunchFailed = errors.New("relaunch under target architecture failed")

	// ErrArchMismatch reports that the process is still on the wrong
	// architecture after a relaunch attempt.
	ErrArchMismatch = errors.New("process architecture does not match target")
)

// Probe checks and, when possible, corrects the process architecture.
type Probe struct {
	TargetArch string

	// overridable in tests
	goarch   string
	getenv   func(string) string
	setenv   func(string, string) error
	relaunch func(targetArch string) error
}

func New(targetArch string) *Probe {
	return &Probe{
		TargetArch: targetArch,
		goarch:     runtime.GOARCH,
		getenv:     os.Getenv,
		setenv:     os.Setenv,
		relaunch:   relaunchSelf,
	}
}

// EnsureCanonicalArchitecture returns nil when the process already runs
// under the target architecture. Otherwise it replaces the process image
// with a relaunched copy pinned to the target; on success this call never
// returns. The relaunch happens at most once per process tree.
func (p *Probe) EnsureCanonicalArchitecture() error {
	if p.goarch == p.TargetArch {
		return nil
	}

	if p.getenv(reexecMarker) != "" {
		return fmt.Errorf("%w: running %s, want %s", ErrArchMismatch, p.goarch, p.TargetArch)
	}

	log.Infof("running under %s, relaunching for %s", p.goarch, p.TargetArch)
	if err := p.setenv(reexecMarker, "1"); err != nil {
		return fmt.Errorf("%w: %v", ErrRelaunchFailed, err)
	}

	if err := p.relaunch(p.TargetArch); err != nil {
		return fmt.Errorf("%w: %v", ErrRelaunchFailed, err)
	}

	// relaunchSelf replaces the process image; reaching this point means the
	// exec call returned without an error, which the platform does not do.
	return ErrRelaunchFailed
}
