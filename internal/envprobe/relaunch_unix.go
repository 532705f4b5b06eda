//go:build unix

package envprobe

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const archWrapper = "/usr/bin/arch"

// relaunchSelf replaces the current process image with the same invocation
// pinned to targetArch through the arch(1) wrapper. On success it does not
// return.
func relaunchSelf(targetArch string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	argv := append([]string{archWrapper, "-" + targetArch, exe}, os.Args[1:]...)
	return unix.Exec(archWrapper, argv, os.Environ())
}
