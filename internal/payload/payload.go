// Package payload stages the agent's script and dependency manifest into
// the install root. The script itself is an opaque artifact shipped next to
// the installer; this package only places it.
package payload

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ScriptName is the payload entrypoint inside the install root.
const ScriptName = "starhop.py"

//go:embed requirements.txt
var manifest []byte

// WriteManifest stages the embedded dependency manifest at path, replacing
// any previous copy so the installed set always matches this build.
func WriteManifest(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, manifest, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LocateScript finds the payload script to stage. An explicit override wins;
// otherwise the script is expected next to the installer executable.
func LocateScript(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("payload script %s: %w", override, err)
		}
		return override, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve installer executable: %w", err)
	}

	candidate := filepath.Join(filepath.Dir(exe), ScriptName)
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("payload script %s: %w", candidate, err)
	}
	return candidate, nil
}

// StageScript copies the payload script into the install root, overwriting
// a previous copy.
func StageScript(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open payload script: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create install root: %w", err)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create staged payload: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy payload script: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close staged payload: %w", err)
	}
	return nil
}
