package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/georepute/backend/migrations"
	"github.com/wonny/georepute/backend/pkg/config"
	"github.com/wonny/georepute/backend/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 마이그레이션 적용",
	Long: `migrations/*.sql 중 schema_migrations에 없는 파일을 이름 순서대로 적용합니다.

Example:
  go run ./cmd/quote migrate
  go run ./cmd/quote migrate --dry-run`,
	RunE: runMigrate,
}

var migrateDryRun bool

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "list embedded migrations without touching the database")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if migrateDryRun {
		files, err := database.PendingMigrations(migrations.FS, nil)
		if err != nil {
			return err
		}
		PrintHeader(out, "Embedded migrations")
		for _, f := range files {
			fmt.Fprintf(out, "  %s\n", f)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		PrintSuccess(out, "schema is up to date")
		return nil
	}
	for _, v := range applied {
		PrintSuccess(out, "applied "+v)
	}
	return nil
}
