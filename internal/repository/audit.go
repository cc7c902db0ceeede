package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arasdesign/newsletter-service/internal/model"
	"github.com/jmoiron/sqlx"
)

// SignupCount is a per-day aggregate from the signup audit table.
type SignupCount struct {
	Day   time.Time `db:"day" json:"day"`
	Total uint64    `db:"total" json:"total"`
}

// AuditRepository records signup events in ClickHouse (analytics view).
// Events are delivered at-least-once, so counts are an upper bound, not
// the subscriber count of record.
type AuditRepository interface {
	InsertBatch(ctx context.Context, events []model.SignupEvent) error
	DailyCounts(ctx context.Context, from, to time.Time) ([]SignupCount, error)
}

type auditRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewAuditRepository(ch *sqlx.DB) AuditRepository {
	return &auditRepository{ch: ch}
}

func (r *auditRepository) InsertBatch(ctx context.Context, events []model.SignupEvent) error {
	if len(events) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO newsletter.signups (subscriber_id, occurred_at) VALUES `)
	args := make([]any, 0, len(events)*2)
	for i, ev := range events {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
		args = append(args, ev.SubscriberID, ev.OccurredAt)
	}

	if _, err := r.ch.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert signup batch: %w", err)
	}
	return nil
}

func (r *auditRepository) DailyCounts(ctx context.Context, from, to time.Time) ([]SignupCount, error) {
	const q = `
		SELECT toDate(occurred_at) AS day, count() AS total
		FROM newsletter.signups
		WHERE occurred_at >= ? AND occurred_at < ?
		GROUP BY day
		ORDER BY day
	`
	var rows []SignupCount
	if err := r.ch.SelectContext(ctx, &rows, q, from, to); err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	return rows, nil
}
