// Package deps locates the external tools the installed agent depends on.
package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// MissingDependencyError reports a required tool that is absent from the
// executable search path. It carries an actionable remediation URL for the
// caller to present; the lookup is never retried automatically.
type MissingDependencyError struct {
	Tool           string
	RemediationURL string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("required tool %q not found; install it from %s", e.Tool, e.RemediationURL)
}

// Resolver finds required tools and the optional permission helper.
type Resolver struct {
	// HelperName is the basename of the optional permission-broker binary.
	HelperName string

	// SearchDirs are probed in order before falling back to a filesystem
	// content search.
	SearchDirs []string

	goos       string
	lookPath   func(string) (string, error)
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewResolver(helperName string, searchDirs []string) *Resolver {
	return &Resolver{
		HelperName: helperName,
		SearchDirs: searchDirs,
		goos:       runtime.GOOS,
		lookPath:   exec.LookPath,
		runCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// DefaultHelperSearchDirs are the well-known install locations probed for
// the helper, most specific first.
func DefaultHelperSearchDirs(installRoot string) []string {
	dirs := []string{
		filepath.Join(installRoot, "bin"),
		installRoot,
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Applications"))
	}
	dirs = append(dirs, "/Applications", "/usr/local/bin", "/opt/homebrew/bin")
	return dirs
}

// LocateRequiredTool resolves name on PATH. A miss is fatal to installation
// and surfaces the remediation URL through MissingDependencyError.
func (r *Resolver) LocateRequiredTool(name, remediationURL string) (string, error) {
	path, err := r.lookPath(name)
	if err != nil {
		return "", &MissingDependencyError{Tool: name, RemediationURL: remediationURL}
	}
	log.Debugf("resolved required tool %s at %s", name, path)
	return path, nil
}

// LocateOptionalHelper searches the well-known locations and then falls back
// to a Spotlight content search. An empty result is not an error: the helper
// only changes how the service is launched.
func (r *Resolver) LocateOptionalHelper(ctx context.Context) string {
	for _, dir := range r.SearchDirs {
		candidate := filepath.Join(dir, r.HelperName)
		if isExecutableFile(candidate) {
			log.Infof("found optional helper at %s", candidate)
			return candidate
		}
	}

	if path := r.spotlightSearch(ctx); path != "" {
		log.Infof("found optional helper via content search at %s", path)
		return path
	}

	log.Info("optional helper not found, agent will be launched directly")
	return ""
}

func (r *Resolver) spotlightSearch(ctx context.Context) string {
	if r.goos != "darwin" {
		return ""
	}

	out, err := r.runCommand(ctx, "mdfind", fmt.Sprintf("kMDItemFSName == '%s'", r.HelperName))
	if err != nil {
		log.Debugf("helper content search failed: %v", err)
		return ""
	}

	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && isExecutableFile(line) {
			return line
		}
	}
	return ""
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}
