package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arasdesign/newsletter-service/internal/config"
	"github.com/arasdesign/newsletter-service/internal/db"
	"github.com/arasdesign/newsletter-service/internal/kafka"
	"github.com/arasdesign/newsletter-service/internal/logger"
	"github.com/arasdesign/newsletter-service/internal/repository"
	"github.com/arasdesign/newsletter-service/internal/worker"
	"github.com/spf13/cobra"
)

var auditorCmd = &cobra.Command{
	Use:   "auditor",
	Short: "Consume signup events into the ClickHouse audit table",
	RunE:  runAuditor,
}

func runAuditor(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)

	if !cfg.Kafka.Configured() {
		return fmt.Errorf("auditor needs kafka.brokers")
	}
	if !cfg.ClickHouse.Configured() {
		return fmt.Errorf("auditor needs clickhouse.dsn")
	}

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
	defer chDB.Close()

	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "newsletter-auditor"
	}

	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewAuditor(consumer, repository.NewAuditRepository(chDB))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf(">> auditor started topic=%s group=%s batchSize=%d batchWait=%s",
		cfg.Kafka.Topic, groupID, w.BatchSize, w.BatchWait)

	return w.Run(ctx)
}
