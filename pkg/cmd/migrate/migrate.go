package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/cmd/common"
	"github.com/mpapenbr/snailrace/pkg/config"
	dbmigrate "github.com/mpapenbr/snailrace/pkg/db/migrate"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (default uses the embedded migrations)")

	return cmd
}

func startMigration(ctx context.Context) error {
	loggers, err := common.SetupLogging(os.Stderr)
	if err != nil {
		return err
	}
	defer loggers.Close()

	if err := common.WaitForDB(ctx); err != nil {
		log.Fatal("database not ready", log.ErrorField(err))
	}
	dbURL := prepareURLForDB(config.DB)

	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
		if err := dbmigrate.MigrateDb(dbURL); err != nil {
			return err
		}
		return logVersion(dbURL)
	}

	log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
	m, err := migrate.New(config.MigrationSourceURL, dbmigrate.DatabaseURL(dbURL))
	if err != nil {
		return fmt.Errorf("could not create migration: %w", err)
	}
	defer m.Close()
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No Migration required")
		return nil
	}
	if err != nil {
		return err
	}
	return logVersion(dbURL)
}

func logVersion(dbURL string) error {
	version, dirty, err := dbmigrate.Version(dbURL)
	if err != nil {
		return err
	}
	log.Info("Database migrated", log.Any("version", version), log.Bool("dirty", dirty))
	return nil
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	} else {
		return fmt.Sprintf("%s?%s", url, options)
	}
}
