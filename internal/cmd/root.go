package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/starhop/starhop/internal/config"
	"github.com/starhop/starhop/internal/logging"
)

var (
	logLevel    string
	logFile     string
	installRoot string
	serviceName string

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:          "starhop",
		Short:        "Install and manage the StarHop wallpaper agent",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
	}
)

// Execute runs the CLI. The caller maps the returned error to a stable
// process exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "sets the installer log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "installer log path; \"console\" logs to stderr (default <install-root>/logs/installer.log)")
	rootCmd.PersistentFlags().StringVar(&installRoot, "install-root", "", "installation root directory (default per-user application support)")
	rootCmd.PersistentFlags().StringVarP(&serviceName, "service", "s", "", "service identifier registered with the service manager")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cmd.Flags().Changed("install-root") {
		loaded.InstallRoot = installRoot
	}
	if cmd.Flags().Changed("service") {
		loaded.ServiceLabel = serviceName
	}
	cfg = loaded

	path := logFile
	if path == "" {
		path = cfg.LogFilePath()
	}
	if err := logging.Init(logLevel, path); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	return nil
}
