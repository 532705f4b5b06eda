package install

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/starhop/starhop/internal/config"
)

// UninstallRegistrar is the teardown half of the service manager bridge.
type UninstallRegistrar interface {
	// Unregister tolerates absence at every step and reports whether any
	// step actually removed a registration.
	Unregister(ctx context.Context, label string) bool
	RemoveDescriptor(label string) (bool, error)
}

// Report lists the teardown actions that were actually necessary. An empty
// list is the neutral "nothing to do" outcome, not an error.
type Report struct {
	Actions []string
}

func (r *Report) NothingToDo() bool {
	return len(r.Actions) == 0
}

// Uninstaller mirrors the install state machine in reverse and must be safe
// against partial or entirely absent installations.
type Uninstaller struct {
	Config    *config.Config
	Registrar UninstallRegistrar
	Notifier  Notifier
}

// Run unregisters the service, removes the descriptor, and purges the
// install root (credential, runtime environment, logs, and record in one
// recursive removal).
func (u *Uninstaller) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	label := u.Config.ServiceLabel

	if u.Registrar.Unregister(ctx, label) {
		log.Infof("unregistered service %s", label)
		report.Actions = append(report.Actions, fmt.Sprintf("unregistered service %s", label))
	}

	removed, err := u.Registrar.RemoveDescriptor(label)
	if err != nil {
		return report, err
	}
	if removed {
		report.Actions = append(report.Actions, "removed service descriptor")
	}

	purged, err := u.purgeRoot()
	if err != nil {
		return report, err
	}
	if purged {
		report.Actions = append(report.Actions, fmt.Sprintf("removed installation root %s", u.Config.InstallRoot))
	}

	if u.Notifier != nil {
		if report.NothingToDo() {
			u.Notifier.Notify(ctx, "StarHop", "Nothing to uninstall.")
		} else {
			u.Notifier.Notify(ctx, "StarHop", "StarHop has been removed.")
		}
	}
	return report, nil
}

func (u *Uninstaller) purgeRoot() (bool, error) {
	root := u.Config.InstallRoot
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return false, nil
	}

	// The installer log lives under the root too; this is the last line that
	// can reach it.
	log.Infof("purging installation root %s", root)
	if err := os.RemoveAll(root); err != nil {
		return false, fmt.Errorf("remove installation root: %w", err)
	}
	return true, nil
}
