package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/yieldmap/pkg/config"
	"github.com/wonny/yieldmap/pkg/database"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database utilities",
}

var (
	dbPingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Check the database connection and pool",
		RunE:  runDBPing,
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the output schema and tables",
		RunE:  runDBMigrate,
	}
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbPingCmd, dbMigrateCmd)
}

func connect() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return database.New(cfg)
}

func runDBPing(cmd *cobra.Command, args []string) error {
	db, err := connect()
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(cmd.Context())
	if err != nil {
		PrintError(err.Error())
		return err
	}

	stats := db.Stats()
	PrintSuccess("Database connection OK")
	PrintKeyValue("Latency", status.ResponseTime.String(), 12)
	PrintKeyValue("Total conns", fmt.Sprintf("%d", stats.TotalConns), 12)
	PrintKeyValue("Idle conns", fmt.Sprintf("%d", stats.IdleConns), 12)
	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	db, err := connect()
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer db.Close()

	if err := db.ApplySchema(cmd.Context()); err != nil {
		PrintError(err.Error())
		return err
	}
	PrintSuccess("Output schema applied")
	return nil
}
