package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"github.com/tasksync/tasksync-api/internal/config"
	"github.com/tasksync/tasksync-api/internal/platform/logger"
	"github.com/tasksync/tasksync-api/internal/platform/postgres"
	"github.com/tasksync/tasksync-api/internal/redact"
)

// migrationTableName is the goose bookkeeping table.
const migrationTableName = "schema_migrations"

// migrationCommands are the goose commands exposed by the CLI.
var migrationCommands = []string{"up", "down", "status", "reset", "version"}

var migrateCmd = &cobra.Command{
	Use:       "migrate [" + strings.Join(migrationCommands, "|") + "]",
	Short:     "Run database migrations",
	Long:      "Apply or inspect the embedded SQL migrations. Without an argument, migrate runs up.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: migrationCommands,
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := "up"
	if len(args) == 1 {
		command = args[0]
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if _, err := logger.Setup(cfg.Server); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupAppDatabase(cmd.Context(), cfg.Database, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return executeMigration(cmd, db, command)
}

// executeMigration runs one goose command against db using the embedded
// migrations.
func executeMigration(cmd *cobra.Command, db *sql.DB, command string) error {
	log := slog.Default().With(
		slog.String("component", "migrations"),
		slog.String("correlation_id", uuid.NewString()),
		slog.String("command", command),
	)

	goose.SetBaseFS(postgres.Migrations)
	goose.SetTableName(migrationTableName)
	goose.SetLogger(&slogGooseLogger{logger: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	start := time.Now()
	log.Info("starting migration operation")
	if err := goose.RunContext(cmd.Context(), command, db, postgres.MigrationsDir); err != nil {
		log.Error("migration failed",
			slog.String("error", redact.Error(err)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration operation completed", slog.Duration("duration", time.Since(start)))
	return nil
}

// slogGooseLogger adapts goose's logger to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements goose.Logger. It does not exit; the error reaches the
// caller through goose's return value.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
