// Package version holds the build-time version stamp.
package version

// version is set at build time via -ldflags.
var version = "development"

// Version returns the installer build version.
func Version() string {
	return version
}
