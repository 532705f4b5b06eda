// Package svcmgr registers the agent with the OS service manager. launchd
// has two registration generations — the modern bootstrap/bootout API and
// the legacy load/unload one — which are not transactionally related, so
// both are attempted in fixed order and "not found"/"already loaded" results
// are folded into success on every step.
package svcmgr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrRegistrationFailed means both registration generations were attempted
// and neither accepted the descriptor.
var ErrRegistrationFailed = errors.New("service registration failed under both launchctl APIs")

// Registrar writes service descriptors and drives launchctl.
type Registrar struct {
	// AgentsDir is where the service manager expects descriptors
	// (~/Library/LaunchAgents for a per-user agent).
	AgentsDir string

	uid        func() int
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewRegistrar(agentsDir string) *Registrar {
	return &Registrar{
		AgentsDir: agentsDir,
		uid:       os.Getuid,
		runCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// DescriptorPath is the on-disk location for a label's descriptor.
func (r *Registrar) DescriptorPath(label string) string {
	return filepath.Join(r.AgentsDir, label+".plist")
}

// attempt is one launchctl invocation plus the outputs that count as
// success anyway.
type attempt struct {
	args     []string
	tolerate []string
}

// Register writes the descriptor and registers it, modern API first with a
// legacy fallback. A best-effort deregistration runs first so a repeated
// install never trips over its own earlier registration.
func (r *Registrar) Register(ctx context.Context, d *Descriptor) error {
	data, err := d.Render()
	if err != nil {
		return err
	}

	path := r.DescriptorPath(d.Label)
	if err := os.MkdirAll(r.AgentsDir, 0o755); err != nil {
		return fmt.Errorf("create agents directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	log.Infof("wrote service descriptor %s", path)

	// Swallow errors: the service may simply not be registered yet.
	r.bestEffort(ctx, attempt{args: []string{"bootout", r.domainTarget(d.Label)}})
	r.bestEffort(ctx, attempt{args: []string{"unload", path}})

	attempts := []attempt{
		{
			args:     []string{"bootstrap", r.domain(), path},
			tolerate: []string{"already bootstrapped", "service already loaded"},
		},
		{
			args:     []string{"load", "-w", path},
			tolerate: []string{"already loaded"},
		},
	}

	var failures []error
	for _, a := range attempts {
		out, err := r.runCommand(ctx, "launchctl", a.args...)
		if err == nil || tolerated(out, a.tolerate) {
			log.Infof("service %s registered via launchctl %s", d.Label, a.args[0])
			return nil
		}
		log.Warnf("launchctl %s failed: %v: %s", a.args[0], err, strings.TrimSpace(string(out)))
		failures = append(failures, fmt.Errorf("launchctl %s: %w", a.args[0], err))
	}

	return fmt.Errorf("%w: %w", ErrRegistrationFailed, errors.Join(failures...))
}

// Unregister tears down a registration under both APIs, by identifier first
// and by descriptor path second. Absence at every step is success; the
// return value reports whether any step actually removed something.
func (r *Registrar) Unregister(ctx context.Context, label string) bool {
	path := r.DescriptorPath(label)
	attempts := []attempt{
		{args: []string{"bootout", r.domainTarget(label)}},
		{args: []string{"bootout", r.domain(), path}},
		{args: []string{"remove", label}},
		{args: []string{"unload", "-w", path}},
	}

	removedAny := false
	for _, a := range attempts {
		if r.bestEffort(ctx, a) {
			removedAny = true
		}
	}
	return removedAny
}

// RemoveDescriptor deletes the descriptor file, reporting whether it was
// present.
func (r *Registrar) RemoveDescriptor(label string) (bool, error) {
	path := r.DescriptorPath(label)
	err := os.Remove(path)
	switch {
	case err == nil:
		log.Infof("removed service descriptor %s", path)
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("remove descriptor: %w", err)
	}
}

// bestEffort runs one launchctl step and reports whether it took effect.
// Errors mean "nothing to do" here, never failure.
func (r *Registrar) bestEffort(ctx context.Context, a attempt) bool {
	out, err := r.runCommand(ctx, "launchctl", a.args...)
	if err != nil {
		log.Debugf("launchctl %v: %v: %s", a.args, err, strings.TrimSpace(string(out)))
		return false
	}
	return true
}

func (r *Registrar) domain() string {
	return fmt.Sprintf("gui/%d", r.uid())
}

func (r *Registrar) domainTarget(label string) string {
	return fmt.Sprintf("gui/%d/%s", r.uid(), label)
}

func tolerated(out []byte, patterns []string) bool {
	text := strings.ToLower(string(out))
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
