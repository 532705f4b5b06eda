package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/starhop/starhop/internal/credential"
	"github.com/starhop/starhop/internal/deps"
	"github.com/starhop/starhop/internal/envprobe"
	"github.com/starhop/starhop/internal/install"
	"github.com/starhop/starhop/internal/notify"
	"github.com/starhop/starhop/internal/progress"
	"github.com/starhop/starhop/internal/svcmgr"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the StarHop agent and register it with the service manager",
	Long: `Installs the StarHop agent for the current user: verifies the execution
architecture, resolves the Python interpreter, stores a validated NASA API
key, builds an isolated runtime environment, and registers the daily agent
with the service manager. Safe to re-run: steps that are already satisfied
are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := deps.NewResolver(cfg.HelperName, deps.DefaultHelperSearchDirs(cfg.InstallRoot))

		store := &credential.Store{
			Path:      cfg.CredentialPath(),
			Prompter:  credential.NewTerminalPrompter(),
			Validator: credential.NewAPIValidator(cfg.APIBaseURL),
		}

		orch := install.NewOrchestrator(
			cfg,
			envprobe.New(cfg.TargetArch),
			resolver,
			store,
			svcmgr.NewRegistrar(cfg.LaunchAgentsDir),
			&progress.Indicator{Writer: os.Stderr, Message: "installing..."},
			notify.New(),
		)

		if err := orch.Run(cmd.Context()); err != nil {
			return err
		}

		cmd.Println("StarHop has been installed")
		return nil
	},
}
