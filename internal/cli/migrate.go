package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/infra/memory"
	pgstore "timed-quiz-service/internal/infra/postgres"
	pgmigrations "timed-quiz-service/internal/infra/postgres/migrations"
)

// NewMigrateCmd applies database migrations and optionally seeds the quiz catalog.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seedFile string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			if seedFile == "" {
				return nil
			}
			return seedQuizzes(cmd.Context(), cfg.Postgres.URL, seedFile)
		},
	}
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "YAML quiz file to upsert into the catalog")
	return cmd
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	return runMigrations(ctx, cfg.Postgres.URL)
}

func runMigrations(ctx context.Context, dsn string) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Printf("migrations up to date")
		return nil
	}
	log.Printf("migrations applied: %s", group)
	return nil
}

func seedQuizzes(ctx context.Context, dsn, path string) error {
	seeded, err := memory.LoadQuizFile(path)
	if err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := pgstore.NewQuizLoader(pool)
	for _, quiz := range seeded.All() {
		if err := loader.SaveQuiz(ctx, quiz); err != nil {
			return fmt.Errorf("seed quiz %s: %w", quiz.ID, err)
		}
		log.Printf("seeded quiz %s (%d questions)", quiz.ID, len(quiz.Questions))
	}
	return nil
}
