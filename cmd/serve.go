package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arasdesign/newsletter-service/internal/config"
	"github.com/arasdesign/newsletter-service/internal/db"
	httpSrv "github.com/arasdesign/newsletter-service/internal/http"
	"github.com/arasdesign/newsletter-service/internal/kafka"
	"github.com/arasdesign/newsletter-service/internal/logger"
	"github.com/arasdesign/newsletter-service/internal/ratelimit"
	"github.com/arasdesign/newsletter-service/internal/repository"
	"github.com/arasdesign/newsletter-service/internal/service/newsletter"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// subscriber store: durable when a DSN is configured, otherwise
		// the in-process fallback. Selected once, here.
		var repo repository.SubscribersRepository
		if cfg.Database.Configured() {
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
			repo = repository.NewSubscribersRepository(sqlDB, cfg.Database.CallTimeout)
		} else {
			if cfg.Database.Required {
				return errors.New("database.required is set but database.dsn is empty")
			}
			log.Printf("database.dsn not set, subscribers will be kept in memory and lost on restart")
			repo = repository.NewMemorySubscribersRepository()
		}

		var limiter ratelimit.Limiter
		switch cfg.RateLimit.Backend {
		case "redis":
			rds, err := db.NewRedisClient(db.RedisOpts{
				Addr:        cfg.Redis.Addr,
				Password:    cfg.Redis.Password,
				DB:          cfg.Redis.DB,
				DialTimeout: cfg.Redis.DialTimeout,
			})
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = rds.Close() }()
			limiter = ratelimit.NewRedisFixedWindow(rds, "rl:sub:", cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
		default:
			fw := ratelimit.NewFixedWindow(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window)
			go fw.Run(ctx, cfg.RateLimit.SweepInterval)
			limiter = fw
		}

		var events newsletter.EventPublisher
		if cfg.Kafka.Configured() {
			pub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			defer func() { _ = pub.Close() }()
			events = pub
		}

		svc := newsletter.New(repo, limiter, events)

		var auditRepo repository.AuditRepository
		if cfg.ClickHouse.Configured() {
			chDB, err := db.NewClickHouseConnection(db.ClickHouseOpts{
				DSN:             cfg.ClickHouse.DSN,
				MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
				MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
				ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
				ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
				PingTimeout:     cfg.ClickHouse.PingTimeout,
			})
			if err != nil {
				return fmt.Errorf("clickhouse connect: %w", err)
			}
			defer func() { _ = chDB.Close() }()
			auditRepo = repository.NewAuditRepository(chDB)
		}

		server := httpSrv.NewServer(cfg, svc, auditRepo)

		errCh := make(chan error, 1)
		go func() {
			log.Printf("starting http on %s", cfg.HTTP.Addr)
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Printf("signal received: %s, shutting down...", sig)
		case err := <-errCh:
			if err != nil {
				log.Printf("http server exited: %v", err)
			}
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)

		return nil
	},
}
