package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the verification service.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "verification",
		Short: "Email verification service",
		Long:  "Issues, delivers and checks one-time email verification codes for job board accounts.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// app.ConfigPath reads CONFIG_PATH, so the flag just overrides it.
			if opts.ConfigPath != "" {
				return os.Setenv("CONFIG_PATH", opts.ConfigPath)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (defaults to $CONFIG_PATH)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
