package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/starhop/starhop/internal/credential"
	"github.com/starhop/starhop/internal/install"
	"github.com/starhop/starhop/internal/pyenv"
	"github.com/starhop/starhop/internal/svcmgr"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current installation state",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := install.LoadRecord(cfg.RecordPath())
		if err != nil {
			return err
		}
		if rec == nil {
			cmd.Println("installation record: absent")
		} else {
			cmd.Printf("installation record: %s (created %s)\n", rec.ID, rec.CreatedAt.Format("2006-01-02"))
		}

		store := &credential.Store{Path: cfg.CredentialPath()}
		cmd.Printf("credential file:     %s\n", presence(store.Exists()))

		builder := pyenv.NewBuilder(cfg.PythonTool, cfg.VenvPath())
		cmd.Printf("runtime environment: %s\n", presence(builder.Ready()))

		_, err = os.Stat(cfg.DescriptorPath())
		cmd.Printf("service descriptor:  %s\n", presence(err == nil))

		state, err := svcmgr.QueryRunState(cfg.ServiceLabel)
		if err != nil {
			cmd.Printf("service state:       unknown (%v)\n", err)
			return nil
		}
		cmd.Printf("service state:       %s\n", state)
		return nil
	},
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}
