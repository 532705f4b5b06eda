// Package install owns the installer state machine. Every transition is an
// idempotent operation whose "already satisfied" check is a filesystem
// probe, so a re-run after a partial earlier attempt skips straight past the
// work that already happened.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/starhop/starhop/internal/config"
	"github.com/starhop/starhop/internal/payload"
	"github.com/starhop/starhop/internal/pyenv"
	"github.com/starhop/starhop/internal/svcmgr"
)

// State names the stops of the linear install state machine.
type State string

const (
	StateStart                 State = "Start"
	StateArchVerified          State = "ArchVerified"
	StateDependenciesResolved  State = "DependenciesResolved"
	StateCredentialReady       State = "CredentialReady"
	StateRuntimeReady          State = "RuntimeReady"
	StateServiceRegistered     State = "ServiceRegistered"
	StateValidationRunComplete State = "ValidationRunComplete"
	StateDone                  State = "Done"
)

// ArchProbe forces the canonical execution context.
type ArchProbe interface {
	EnsureCanonicalArchitecture() error
}

// Resolver locates external tools.
type Resolver interface {
	LocateRequiredTool(name, remediationURL string) (string, error)
	LocateOptionalHelper(ctx context.Context) string
}

// CredentialStore produces a validated, persisted secret.
type CredentialStore interface {
	EnsureCredential(ctx context.Context) (string, error)
}

// RuntimeBuilder creates the isolated runtime environment.
type RuntimeBuilder interface {
	Ready() bool
	EnsureEnvironment(ctx context.Context) error
	InstallDependencies(ctx context.Context, manifestPath string) error
	PythonPath() string
}

// Registrar registers the service descriptor with the service manager.
type Registrar interface {
	Register(ctx context.Context, d *svcmgr.Descriptor) error
}

// ProgressIndicator runs until canceled; Stop must be safe on every path.
type ProgressIndicator interface {
	Start(ctx context.Context)
	Stop()
}

// Notifier delivers the final user-facing result.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// Orchestrator drives the install state machine.
type Orchestrator struct {
	Config      *config.Config
	Probe       ArchProbe
	Resolver    Resolver
	Credentials CredentialStore
	Registrar   Registrar
	Indicator   ProgressIndicator
	Notifier    Notifier

	// NewRuntimeBuilder is constructed lazily because the system interpreter
	// is only known after dependency resolution.
	NewRuntimeBuilder func(python string) RuntimeBuilder

	// LocatePayload finds the payload script to stage.
	LocatePayload func() (string, error)

	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
	state      State
}

// NewOrchestrator wires the production components for cfg.
func NewOrchestrator(cfg *config.Config, probe ArchProbe, resolver Resolver, creds CredentialStore, registrar Registrar, indicator ProgressIndicator, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		Config:      cfg,
		Probe:       probe,
		Resolver:    resolver,
		Credentials: creds,
		Registrar:   registrar,
		Indicator:   indicator,
		Notifier:    notifier,
		NewRuntimeBuilder: func(python string) RuntimeBuilder {
			return pyenv.NewBuilder(python, cfg.VenvPath())
		},
		LocatePayload: func() (string, error) {
			return payload.LocateScript(cfg.PayloadSource)
		},
		runCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		state: StateStart,
	}
}

// State reports the last state the machine reached.
func (o *Orchestrator) State() State {
	return o.state
}

// Run walks the machine from Start to Done. The progress indicator is torn
// down on every exit path before the final notification; failures are
// logged before the user sees them.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	defer func() {
		o.Indicator.Stop()
		o.notifyOutcome(ctx, err)
	}()

	log.Infof("starting installation into %s", o.Config.InstallRoot)

	if err = o.Probe.EnsureCanonicalArchitecture(); err != nil {
		return o.fail(err)
	}
	o.enter(StateArchVerified)

	python, err := o.Resolver.LocateRequiredTool(o.Config.PythonTool, o.Config.PythonRemediationURL)
	if err != nil {
		return o.fail(err)
	}
	helper := o.Resolver.LocateOptionalHelper(ctx)
	o.enter(StateDependenciesResolved)

	if _, err = o.Credentials.EnsureCredential(ctx); err != nil {
		return o.fail(err)
	}
	o.enter(StateCredentialReady)

	builder := o.NewRuntimeBuilder(python)
	if err = o.buildRuntime(ctx, builder); err != nil {
		return o.fail(err)
	}
	o.enter(StateRuntimeReady)

	o.Indicator.Start(ctx)
	desc := o.buildDescriptor(helper, builder.PythonPath())
	if err = o.Registrar.Register(ctx, desc); err != nil {
		return o.fail(err)
	}
	if err = o.saveRecord(); err != nil {
		return o.fail(err)
	}
	o.enter(StateServiceRegistered)
	o.Indicator.Stop()

	// One foreground run to surface setup errors now instead of at the next
	// scheduled run. A failure here is logged but does not revert the
	// registration; the user can retry without reinstalling.
	o.validationRun(ctx, builder.PythonPath())
	o.enter(StateValidationRunComplete)

	o.enter(StateDone)
	return nil
}

func (o *Orchestrator) buildRuntime(ctx context.Context, builder RuntimeBuilder) error {
	if err := os.MkdirAll(o.Config.InstallRoot, 0o755); err != nil {
		return fmt.Errorf("create install root: %w", err)
	}

	src, err := o.LocatePayload()
	if err != nil {
		return err
	}
	if err := payload.StageScript(src, o.Config.PayloadPath()); err != nil {
		return err
	}
	if err := payload.WriteManifest(o.Config.ManifestPath()); err != nil {
		return err
	}

	if builder.Ready() {
		log.Info("runtime environment already ready, skipping build")
		return nil
	}

	o.Indicator.Start(ctx)
	if err := builder.EnsureEnvironment(ctx); err != nil {
		return err
	}
	return builder.InstallDependencies(ctx, o.Config.ManifestPath())
}

// buildDescriptor encodes the launch strategy in the argument vector: pass
// through the permission helper when one was found, otherwise launch the
// environment's interpreter directly, pinned to the target architecture
// when configured.
func (o *Orchestrator) buildDescriptor(helper, venvPython string) *svcmgr.Descriptor {
	var args []string
	switch {
	case helper != "":
		args = []string{helper, "exec", "--", venvPython, o.Config.PayloadPath()}
	case o.Config.PinArch:
		args = []string{"/usr/bin/arch", "-" + o.Config.TargetArch, venvPython, o.Config.PayloadPath()}
	default:
		args = []string{venvPython, o.Config.PayloadPath()}
	}

	return &svcmgr.Descriptor{
		Label:             o.Config.ServiceLabel,
		ProgramArguments:  args,
		WorkingDirectory:  o.Config.InstallRoot,
		StandardOutPath:   o.Config.AgentStdoutPath(),
		StandardErrorPath: o.Config.AgentStderrPath(),
		RunAtLoad:         true,
		Hour:              9,
		Minute:            0,
	}
}

func (o *Orchestrator) saveRecord() error {
	prev, err := LoadRecord(o.Config.RecordPath())
	if err != nil {
		log.Warnf("discarding unreadable installation record: %v", err)
	}
	rec := NewRecord(o.Config, prev)
	return rec.Save(o.Config.RecordPath())
}

func (o *Orchestrator) validationRun(ctx context.Context, venvPython string) {
	log.Info("running payload once to validate the installation")
	out, err := o.runCommand(ctx, venvPython, o.Config.PayloadPath(), "--no-wallpaper")
	if err != nil {
		log.Warnf("validation run failed (installation stays registered): %v: %s", err, strings.TrimSpace(string(out)))
		return
	}
	log.Info("validation run succeeded")
}

func (o *Orchestrator) enter(s State) {
	o.state = s
	log.Infof("state %s reached", s)
}

func (o *Orchestrator) fail(err error) error {
	log.Errorf("installation failed at state %s: %v", o.state, err)
	return err
}

func (o *Orchestrator) notifyOutcome(ctx context.Context, err error) {
	if o.Notifier == nil {
		return
	}
	switch {
	case err == nil:
		o.Notifier.Notify(ctx, "StarHop", "Installation complete. Tomorrow's picture will arrive on schedule.")
	case errors.Is(err, context.Canceled):
		o.Notifier.Notify(ctx, "StarHop", "Installation canceled.")
	default:
		o.Notifier.Notify(ctx, "StarHop", fmt.Sprintf("Installation failed: %v", err))
	}
}
