package install

import (
	"errors"

	"github.com/starhop/starhop/internal/credential"
	"github.com/starhop/starhop/internal/deps"
	"github.com/starhop/starhop/internal/envprobe"
)

// Stable process exit codes. A GUI wrapper keys remediation dialogs off
// these values, so they must never be renumbered.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitMissingDependency = 2
	ExitUserAborted       = 3
	ExitInvalidCredential = 4
	ExitRelaunchFailed    = 5
	ExitArchMismatch      = 6
)

// ExitCode maps an orchestrator error to its stable exit code.
func ExitCode(err error) int {
	var missing *deps.MissingDependencyError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &missing):
		return ExitMissingDependency
	case errors.Is(err, credential.ErrAborted):
		return ExitUserAborted
	case errors.Is(err, credential.ErrInvalid):
		return ExitInvalidCredential
	case errors.Is(err, envprobe.ErrRelaunchFailed):
		return ExitRelaunchFailed
	case errors.Is(err, envprobe.ErrArchMismatch):
		return ExitArchMismatch
	default:
		return ExitFailure
	}
}
