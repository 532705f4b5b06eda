//go:build windows

package envprobe

import "fmt"

// relaunchSelf has no architecture-pinning wrapper on Windows; a mismatch is
// reported instead of corrected.
func relaunchSelf(targetArch string) error {
	return fmt.Errorf("architecture relaunch is not supported on windows (want %s)", targetArch)
}
