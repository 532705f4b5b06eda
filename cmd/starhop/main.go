package main

import (
	"os"

	"github.com/starhop/starhop/internal/cmd"
	"github.com/starhop/starhop/internal/install"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(install.ExitCode(err))
	}
}
