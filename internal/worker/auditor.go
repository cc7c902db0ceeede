package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arasdesign/newsletter-service/internal/kafka"
	"github.com/arasdesign/newsletter-service/internal/logger"
	"github.com/arasdesign/newsletter-service/internal/model"
	"github.com/arasdesign/newsletter-service/internal/repository"
	"go.uber.org/zap"
)

// Auditor:
// - fetches signup events from Kafka,
// - batch-inserts them into the ClickHouse audit table.
// Delivery is at-least-once; the audit table tolerates duplicates.
type Auditor struct {
	Consumer *kafka.Consumer
	Audit    repository.AuditRepository

	BatchSize int           // max buffered events per flush
	BatchWait time.Duration // max time to wait before flush
}

// NewAuditor builds a worker with sane defaults.
func NewAuditor(consumer *kafka.Consumer, audit repository.AuditRepository) *Auditor {
	return &Auditor{
		Consumer:  consumer,
		Audit:     audit,
		BatchSize: 100,
		BatchWait: time.Second,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (a *Auditor) Run(ctx context.Context) error {
	if a.BatchSize <= 0 {
		a.BatchSize = 100
	}
	if a.BatchWait <= 0 {
		a.BatchWait = time.Second
	}

	events := make(chan model.SignupEvent, a.BatchSize*2)
	go a.runBatchWriter(ctx, events)

	for {
		m, err := a.Consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Log.Warn("kafka fetch failed", zap.Error(err))
			time.Sleep(200 * time.Millisecond)
			continue
		}

		var ev model.SignupEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.SubscriberID == "" {
			// poison → commit, skip
			_ = a.Consumer.Commit(ctx, m)
			logger.Log.Warn("bad signup event payload", zap.Error(err))
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return nil
		}

		if err := a.Consumer.Commit(ctx, m); err != nil {
			logger.Log.Warn("kafka commit failed", zap.Error(err))
		}
	}
}

// runBatchWriter does size/time-based flush of audit inserts.
func (a *Auditor) runBatchWriter(ctx context.Context, in <-chan model.SignupEvent) {
	tick := time.NewTicker(a.BatchWait)
	defer tick.Stop()

	buf := make([]model.SignupEvent, 0, a.BatchSize)

	flush := func() {
		if len(buf) == 0 {
			return
		}
		fctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Audit.InsertBatch(fctx, buf); err != nil {
			logger.Log.Error("audit batch insert failed",
				zap.Int("events", len(buf)), zap.Error(err))
		} else {
			logger.Log.Info("audit batch flushed", zap.Int("events", len(buf)))
		}
		buf = buf[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case ev, ok := <-in:
			if !ok {
				flush()
				return
			}
			buf = append(buf, ev)
			if len(buf) >= a.BatchSize {
				flush()
			}
		case <-tick.C:
			flush()
		}
	}
}
