// Package pyenv builds the isolated runtime environment the agent executes
// in: a virtualenv under the install root plus the payload's dependency
// manifest installed into it.
package pyenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
)

// readyMarker is written only after the full manifest installed cleanly.
// Its absence after a venv exists means a prior install died midway; the
// manifest is then installed again from scratch.
const readyMarker = ".deps-ok"

// Builder creates and populates the runtime environment.
type Builder struct {
	// Python is the system interpreter used to create the environment.
	Python string

	// Root is the environment directory.
	Root string

	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewBuilder(python, root string) *Builder {
	return &Builder{
		Python: python,
		Root:   root,
		runCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// EnvExists probes for an existing environment.
func (b *Builder) EnvExists() bool {
	_, err := os.Stat(filepath.Join(b.Root, "pyvenv.cfg"))
	return err == nil
}

// Ready reports whether the environment exists and its full manifest is
// installed. A partial dependency install never counts as ready.
func (b *Builder) Ready() bool {
	if !b.EnvExists() {
		return false
	}
	_, err := os.Stat(filepath.Join(b.Root, readyMarker))
	return err == nil
}

// EnsureEnvironment creates the environment only if it does not already
// exist.
func (b *Builder) EnsureEnvironment(ctx context.Context) error {
	if b.EnvExists() {
		log.Infof("runtime environment already present at %s", b.Root)
		return nil
	}

	log.Infof("creating runtime environment at %s", b.Root)
	out, err := b.runCommand(ctx, b.Python, "-m", "venv", b.Root)
	if err != nil {
		return fmt.Errorf("create runtime environment: %w: %s", err, out)
	}
	return nil
}

// InstallDependencies installs the manifest into the environment. It is
// all-or-nothing: the ready marker is cleared first and written back only
// on success, so a midway failure leaves the environment not ready.
func (b *Builder) InstallDependencies(ctx context.Context, manifestPath string) error {
	if b.Ready() {
		log.Info("dependency manifest already installed, skipping")
		return nil
	}

	marker := filepath.Join(b.Root, readyMarker)
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear readiness marker: %w", err)
	}

	log.Infof("installing dependency manifest %s", manifestPath)
	out, err := b.runCommand(ctx, b.PythonPath(), "-m", "pip", "install", "--disable-pip-version-check", "-r", manifestPath)
	if err != nil {
		return fmt.Errorf("install dependencies: %w: %s", err, out)
	}

	if err := os.WriteFile(marker, []byte("ok\n"), 0o644); err != nil {
		return fmt.Errorf("write readiness marker: %w", err)
	}
	return nil
}

// PythonPath is the environment's own interpreter, the one the service
// descriptor must reference.
func (b *Builder) PythonPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(b.Root, "Scripts", "python.exe")
	}
	return filepath.Join(b.Root, "bin", "python3")
}
