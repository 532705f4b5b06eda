package envprobe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProbe(goarch string, env map[string]string) (*Probe, *int) {
	relaunches := 0
	p := &Probe{
		TargetArch: "arm64",
		goarch:     goarch,
		getenv: func(key string) string {
			return env[key]
		},
		setenv: func(key, value string) error {
			env[key] = value
			return nil
		},
		relaunch: func(string) error {
			relaunches++
			// a real relaunch replaces the process image; returning nil here
			// simulates an exec call that came back, which is a failure
			return nil
		},
	}
	return p, &relaunches
}

func TestEnsureCanonicalArchitecture_Match(t *testing.T) {
	p, relaunches := newTestProbe("arm64", map[string]string{})

	err := p.EnsureCanonicalArchitecture()

	require.NoError(t, err)
	assert.Zero(t, *relaunches)
}

func TestEnsureCanonicalArchitecture_RelaunchesOnce(t *testing.T) {
	env := map[string]string{}
	p, relaunches := newTestProbe("amd64", env)

	err := p.EnsureCanonicalArchitecture()

	// the fake relaunch returns, so the probe must report a relaunch failure
	require.ErrorIs(t, err, ErrRelaunchFailed)
	assert.Equal(t, 1, *relaunches)
	assert.NotEmpty(t, env[reexecMarker], "one-shot marker must be set before relaunching")
}

func TestEnsureCanonicalArchitecture_MismatchAfterRelaunch(t *testing.T) {
	env := map[string]string{reexecMarker: "1"}
	p, relaunches := newTestProbe("amd64", env)

	err := p.EnsureCanonicalArchitecture()

	require.ErrorIs(t, err, ErrArchMismatch)
	assert.Zero(t, *relaunches, "marker must prevent a second relaunch")
}

func TestEnsureCanonicalArchitecture_RelaunchError(t *testing.T) {
	env := map[string]string{}
	p, _ := newTestProbe("amd64", env)
	p.relaunch = func(string) error {
		return errors.New("arch wrapper missing")
	}

	err := p.EnsureCanonicalArchitecture()

	require.ErrorIs(t, err, ErrRelaunchFailed)
}
