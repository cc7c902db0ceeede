package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arasdesign/newsletter-service/internal/config"
	"github.com/arasdesign/newsletter-service/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations (Postgres, plus ClickHouse when configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if !cfg.Database.Configured() {
			return errors.New("migrate needs database.dsn; the in-memory fallback has no schema")
		}

		sqlDB, err := db.NewPostgresConnection(cfg.Database.DSN, db.PostgresOpts{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
			PingTimeout:     cfg.Database.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer sqlDB.Close()

		sqlPath := filepath.Join("migrations", "001_init.sql")
		sqlBytes, err := os.ReadFile(sqlPath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", sqlPath, err)
		}
		// the pgx driver runs one statement per Exec
		for _, stmt := range splitStatements(string(sqlBytes)) {
			if _, err := sqlDB.Exec(stmt); err != nil {
				return fmt.Errorf("exec migration: %w", err)
			}
		}

		if cfg.ClickHouse.Configured() {
			chDB, err := db.NewClickHouseConnection(db.ClickHouseOpts{
				DSN:         cfg.ClickHouse.DSN,
				PingTimeout: cfg.ClickHouse.PingTimeout,
			})
			if err != nil {
				return fmt.Errorf("clickhouse connect: %w", err)
			}
			defer chDB.Close()

			chPath := filepath.Join("migrations", "002_clickhouse.sql")
			chBytes, err := os.ReadFile(chPath)
			if err != nil {
				return fmt.Errorf("read migration file %s: %w", chPath, err)
			}
			for _, stmt := range splitStatements(string(chBytes)) {
				if _, err := chDB.Exec(stmt); err != nil {
					return fmt.Errorf("exec clickhouse migration: %w", err)
				}
			}
		}

		fmt.Println(">> Migration complete")
		return nil
	},
}

func splitStatements(sql string) []string {
	var out []string
	for _, s := range strings.Split(sql, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
