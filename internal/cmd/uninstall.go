package cmd

import (
	"github.com/spf13/cobra"

	"github.com/starhop/starhop/internal/install"
	"github.com/starhop/starhop/internal/notify"
	"github.com/starhop/starhop/internal/svcmgr"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the StarHop agent and every artifact it installed",
	Long: `Unregisters the agent from the service manager, removes the service
descriptor, and purges the installation root. Safe to run against a partial
or absent installation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		uninstaller := &install.Uninstaller{
			Config:    cfg,
			Registrar: svcmgr.NewRegistrar(cfg.LaunchAgentsDir),
			Notifier:  notify.New(),
		}

		report, err := uninstaller.Run(cmd.Context())
		if err != nil {
			return err
		}

		if report.NothingToDo() {
			cmd.Println("Nothing to uninstall")
			return nil
		}
		for _, action := range report.Actions {
			cmd.Println(action)
		}
		return nil
	},
}
