package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starhop/starhop/internal/config"
	"github.com/starhop/starhop/internal/credential"
	"github.com/starhop/starhop/internal/deps"
	"github.com/starhop/starhop/internal/svcmgr"
)

type fakeProbe struct {
	err   error
	calls int
}

func (f *fakeProbe) EnsureCanonicalArchitecture() error {
	f.calls++
	return f.err
}

type fakeResolver struct {
	toolPath string
	toolErr  error
	helper   string
}

func (f *fakeResolver) LocateRequiredTool(name, url string) (string, error) {
	if f.toolErr != nil {
		return "", f.toolErr
	}
	return f.toolPath, nil
}

func (f *fakeResolver) LocateOptionalHelper(context.Context) string {
	return f.helper
}

type fakeCreds struct {
	err   error
	calls int
}

func (f *fakeCreds) EnsureCredential(context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "realkey9876", nil
}

type fakeBuilder struct {
	ready    bool
	envCalls int
	depCalls int
	envErr   error
	depErr   error
	python   string
}

func (f *fakeBuilder) Ready() bool { return f.ready }

func (f *fakeBuilder) EnsureEnvironment(context.Context) error {
	f.envCalls++
	return f.envErr
}

func (f *fakeBuilder) InstallDependencies(context.Context, string) error {
	f.depCalls++
	if f.depErr != nil {
		return f.depErr
	}
	f.ready = true
	return nil
}

func (f *fakeBuilder) PythonPath() string { return f.python }

type fakeRegistrar struct {
	desc *svcmgr.Descriptor
	err  error
}

func (f *fakeRegistrar) Register(_ context.Context, d *svcmgr.Descriptor) error {
	if f.err != nil {
		return f.err
	}
	f.desc = d
	return nil
}

type fakeIndicator struct {
	starts int
	stops  int
}

func (f *fakeIndicator) Start(context.Context) { f.starts++ }
func (f *fakeIndicator) Stop()                 { f.stops++ }

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, _, message string) {
	f.messages = append(f.messages, message)
}

type harness struct {
	orch      *Orchestrator
	cfg       *config.Config
	probe     *fakeProbe
	resolver  *fakeResolver
	creds     *fakeCreds
	builder   *fakeBuilder
	registrar *fakeRegistrar
	indicator *fakeIndicator
	notifier  *fakeNotifier
	runs      *[][]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	root := filepath.Join(t.TempDir(), "StarHop")
	cfg := &config.Config{
		InstallRoot:     root,
		ServiceLabel:    "com.starhop.agent",
		LaunchAgentsDir: t.TempDir(),
		TargetArch:      "arm64",
		PythonTool:      "python3",
		APIBaseURL:      "https://api.example.com",
	}

	payloadSrc := filepath.Join(t.TempDir(), "starhop.py")
	require.NoError(t, os.WriteFile(payloadSrc, []byte("print('hi')\n"), 0o755))

	h := &harness{
		cfg:       cfg,
		probe:     &fakeProbe{},
		resolver:  &fakeResolver{toolPath: "/usr/bin/python3"},
		creds:     &fakeCreds{},
		builder:   &fakeBuilder{python: filepath.Join(root, "venv", "bin", "python3")},
		registrar: &fakeRegistrar{},
		indicator: &fakeIndicator{},
		notifier:  &fakeNotifier{},
		runs:      &[][]string{},
	}

	h.orch = &Orchestrator{
		Config:      cfg,
		Probe:       h.probe,
		Resolver:    h.resolver,
		Credentials: h.creds,
		Registrar:   h.registrar,
		Indicator:   h.indicator,
		Notifier:    h.notifier,
		NewRuntimeBuilder: func(string) RuntimeBuilder {
			return h.builder
		},
		LocatePayload: func() (string, error) {
			return payloadSrc, nil
		},
		runCommand: func(_ context.Context, name string, args ...string) ([]byte, error) {
			*h.runs = append(*h.runs, append([]string{name}, args...))
			return nil, nil
		},
		state: StateStart,
	}
	return h
}

func TestInstall_FreshMachine_DirectLaunch(t *testing.T) {
	h := newHarness(t)

	err := h.orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateDone, h.orch.State())
	assert.Equal(t, ExitOK, ExitCode(err))

	// helper absent: the argument vector uses the direct-launch form
	require.NotNil(t, h.registrar.desc)
	assert.Equal(t, []string{h.builder.python, h.cfg.PayloadPath()}, h.registrar.desc.ProgramArguments)

	// runtime built exactly once
	assert.Equal(t, 1, h.builder.envCalls)
	assert.Equal(t, 1, h.builder.depCalls)

	// one foreground validation run with the wallpaper suppressed
	require.Len(t, *h.runs, 1)
	assert.Equal(t, []string{h.builder.python, h.cfg.PayloadPath(), "--no-wallpaper"}, (*h.runs)[0])

	// record aggregates the artifact locations
	rec, err := LoadRecord(h.cfg.RecordPath())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, h.cfg.VenvPath(), rec.RuntimeEnv)

	// payload and manifest staged
	assert.FileExists(t, h.cfg.PayloadPath())
	assert.FileExists(t, h.cfg.ManifestPath())

	// indicator torn down before the success notification
	assert.GreaterOrEqual(t, h.indicator.stops, h.indicator.starts)
	require.NotEmpty(t, h.notifier.messages)
	assert.Contains(t, h.notifier.messages[0], "complete")
}

func TestInstall_HelperPresent_PassThroughLaunch(t *testing.T) {
	h := newHarness(t)
	h.resolver.helper = "/Applications/starhop-helper"

	require.NoError(t, h.orch.Run(context.Background()))

	require.NotNil(t, h.registrar.desc)
	assert.Equal(t,
		[]string{"/Applications/starhop-helper", "exec", "--", h.builder.python, h.cfg.PayloadPath()},
		h.registrar.desc.ProgramArguments)
}

func TestInstall_ArchPinnedLaunch(t *testing.T) {
	h := newHarness(t)
	h.cfg.PinArch = true

	require.NoError(t, h.orch.Run(context.Background()))

	require.NotNil(t, h.registrar.desc)
	assert.Equal(t,
		[]string{"/usr/bin/arch", "-arm64", h.builder.python, h.cfg.PayloadPath()},
		h.registrar.desc.ProgramArguments)
}

func TestInstall_MissingDependencyHaltsEarly(t *testing.T) {
	h := newHarness(t)
	h.resolver.toolErr = &deps.MissingDependencyError{
		Tool:           "python3",
		RemediationURL: "https://www.python.org/downloads/macos/",
	}

	err := h.orch.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, ExitMissingDependency, ExitCode(err))
	assert.Equal(t, StateArchVerified, h.orch.State())

	// nothing downstream may have happened
	assert.Zero(t, h.creds.calls)
	assert.Zero(t, h.builder.envCalls)
	assert.NoFileExists(t, h.cfg.CredentialPath())
	assert.NoDirExists(t, h.cfg.VenvPath())
	assert.Nil(t, h.registrar.desc)

	// teardown and failure notification still ran
	assert.GreaterOrEqual(t, h.indicator.stops, 1)
	require.NotEmpty(t, h.notifier.messages)
	assert.Contains(t, h.notifier.messages[0], "failed")
}

func TestInstall_UserAborted(t *testing.T) {
	h := newHarness(t)
	h.creds.err = credential.ErrAborted

	err := h.orch.Run(context.Background())

	require.ErrorIs(t, err, credential.ErrAborted)
	assert.Equal(t, ExitUserAborted, ExitCode(err))
	assert.Equal(t, StateDependenciesResolved, h.orch.State())
	assert.Zero(t, h.builder.envCalls)
}

func TestInstall_RerunSkipsSatisfiedSteps(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.orch.Run(context.Background()))

	first, err := LoadRecord(h.cfg.RecordPath())
	require.NoError(t, err)

	// second run on the fully installed machine
	h.orch.state = StateStart
	require.NoError(t, h.orch.Run(context.Background()))

	assert.Equal(t, StateDone, h.orch.State())
	assert.Equal(t, 1, h.builder.envCalls, "runtime environment must not be re-created")
	assert.Equal(t, 1, h.builder.depCalls, "manifest must not be re-installed")

	second, err := LoadRecord(h.cfg.RecordPath())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "re-install keeps the installation identity")
}

func TestInstall_ValidationFailureDoesNotRevert(t *testing.T) {
	h := newHarness(t)
	h.orch.runCommand = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Traceback"), errors.New("exit status 1")
	}

	err := h.orch.Run(context.Background())

	require.NoError(t, err, "a failed validation run must not fail the install")
	assert.Equal(t, StateDone, h.orch.State())
	require.NotNil(t, h.registrar.desc, "registration must survive the failed run")
}

func TestInstall_RegistrationFailure(t *testing.T) {
	h := newHarness(t)
	h.registrar.err = svcmgr.ErrRegistrationFailed

	err := h.orch.Run(context.Background())

	require.ErrorIs(t, err, svcmgr.ErrRegistrationFailed)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Equal(t, StateRuntimeReady, h.orch.State())
}
