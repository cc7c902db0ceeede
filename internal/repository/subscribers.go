package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arasdesign/newsletter-service/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// ErrDuplicate is returned by Insert when the row collides with the
// active-email unique index. The index, not the service-level exists
// check, is what holds the one-active-row-per-email invariant under
// concurrent inserts.
var ErrDuplicate = errors.New("subscriber already exists")

// SubscribersRepository defines persistence for newsletter subscribers.
// Email arguments are expected to be normalized (lower-case) by the caller.
type SubscribersRepository interface {
	ExistsActive(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, sub model.Subscriber) error
	ListActive(ctx context.Context, limit, offset int) ([]model.Subscriber, error)
	CountActive(ctx context.Context) (int, error)
}

type SubscribersRepositoryImpl struct {
	db          *sqlx.DB
	callTimeout time.Duration
}

// NewSubscribersRepository wraps a Postgres pool. Every call runs under
// callTimeout so a slow store surfaces as an error instead of a hang.
func NewSubscribersRepository(db *sqlx.DB, callTimeout time.Duration) *SubscribersRepositoryImpl {
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &SubscribersRepositoryImpl{db: db, callTimeout: callTimeout}
}

var _ SubscribersRepository = (*SubscribersRepositoryImpl)(nil)

func (r *SubscribersRepositoryImpl) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.callTimeout)
}

func (r *SubscribersRepositoryImpl) ExistsActive(ctx context.Context, email string) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var id string
	err := r.db.GetContext(ctx, &id, `
		SELECT id FROM newsletter_subscribers
		 WHERE email = $1 AND status = 'active'
		 LIMIT 1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return true, nil
}

func (r *SubscribersRepositoryImpl) Insert(ctx context.Context, sub model.Subscriber) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	const q = `
		INSERT INTO newsletter_subscribers
		    (id, email, status, subscribed_at, created_at, updated_at)
		VALUES
		    ($1, $2,    $3,     $4,            NOW(),      NOW())
	`
	_, err := r.db.ExecContext(ctx, q, sub.ID, sub.Email, sub.Status.String(), sub.SubscribedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

func (r *SubscribersRepositoryImpl) ListActive(ctx context.Context, limit, offset int) ([]model.Subscriber, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := r.bound(ctx)
	defer cancel()

	var subs []model.Subscriber
	err := r.db.SelectContext(ctx, &subs, `
		SELECT id, email, status, subscribed_at, created_at, updated_at
		  FROM newsletter_subscribers
		 WHERE status = 'active'
		 ORDER BY subscribed_at DESC
		 LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return subs, nil
}

func (r *SubscribersRepositoryImpl) CountActive(ctx context.Context) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT count(*) FROM newsletter_subscribers WHERE status = 'active'
	`)
	if err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}
