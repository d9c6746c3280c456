package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobboard/verification/internal/app"
	"github.com/jobboard/verification/internal/pkg/config"
	"github.com/jobboard/verification/internal/pkg/migration"
	"github.com/jobboard/verification/internal/verification/outbound/db"
)

var errNoDatabaseURL = errors.New("database url is empty: set database.url or pass --dsn")

// NewMigrateCommand creates the migrate command with up and down subcommands.
func NewMigrateCommand(_ *RootOptions) *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the postgres schema",
	}

	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres connection string (overrides database.url)")

	for _, d := range []migration.Direction{migration.Up, migration.Down} {
		cmd.AddCommand(&cobra.Command{
			Use:   string(d),
			Short: fmt.Sprintf("Run all %s migrations", d),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				url, err := resolveDSN(dsn)
				if err != nil {
					return err
				}
				return migration.Run(url, db.Migrations, "migrations", d)
			},
		})
	}

	return cmd
}

func resolveDSN(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return "", err
	}

	cfg, err := config.NewViper(app.ConfigPath())
	if err != nil {
		return "", err
	}
	defer cfg.Close()

	url := cfg.GetString("database.url")
	if url == "" {
		return "", errNoDatabaseURL
	}
	return url, nil
}
