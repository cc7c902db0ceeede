package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/arasdesign/newsletter-service/internal/config"
	"github.com/arasdesign/newsletter-service/internal/db"
	"github.com/arasdesign/newsletter-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo subscribers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if !cfg.Database.Configured() {
			return fmt.Errorf("seed needs database.dsn")
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

		log.Println(">> Seeding demo subscribers...")
		if err := seedSubscribers(sqlDB); err != nil {
			return err
		}
		log.Println(">> Seed completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// seedSubscribers inserts deterministic demo subscribers (idempotent).
func seedSubscribers(dbx *sqlx.DB) error {
	now := time.Now().UTC()
	subs := []model.Subscriber{
		{ID: "seed-0001", Email: "alice@example.com", Status: model.StatusActive, SubscribedAt: now},
		{ID: "seed-0002", Email: "bob@example.com", Status: model.StatusActive, SubscribedAt: now},
		{ID: "seed-0003", Email: "carol@example.com", Status: model.StatusActive, SubscribedAt: now},
		{ID: "seed-0004", Email: "dave@example.com", Status: model.StatusUnsubscribed, SubscribedAt: now.AddDate(0, -1, 0)},
	}

	// ON CONFLICT DO NOTHING swallows both id and active-email collisions
	const q = `
		INSERT INTO newsletter_subscribers
		    (id, email, status, subscribed_at, created_at, updated_at)
		VALUES
		    ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT DO NOTHING
	`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, s := range subs {
		if _, err := tx.Exec(q, s.ID, s.Email, s.Status.String(), s.SubscribedAt); err != nil {
			return fmt.Errorf("insert subscriber %q: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subscribers: %w", err)
	}
	return nil
}
