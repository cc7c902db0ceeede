package repository

import (
	"context"
	"sync"

	"github.com/arasdesign/newsletter-service/internal/model"
)

// MemorySubscribersRepository is the process-local fallback used when no
// database DSN is configured. Data does not survive a restart.
type MemorySubscribersRepository struct {
	mu   sync.Mutex
	subs []model.Subscriber
}

func NewMemorySubscribersRepository() *MemorySubscribersRepository {
	return &MemorySubscribersRepository{}
}

var _ SubscribersRepository = (*MemorySubscribersRepository)(nil)

func (r *MemorySubscribersRepository) ExistsActive(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.existsLocked(email), nil
}

func (r *MemorySubscribersRepository) existsLocked(email string) bool {
	for _, s := range r.subs {
		if s.Email == email && s.Status == model.StatusActive {
			return true
		}
	}
	return false
}

// Insert re-checks for an active duplicate under the same lock, so the
// check-then-act race the durable store solves with its unique index
// cannot happen here.
func (r *MemorySubscribersRepository) Insert(_ context.Context, sub model.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsLocked(sub.Email) {
		return ErrDuplicate
	}
	r.subs = append(r.subs, sub)
	return nil
}

func (r *MemorySubscribersRepository) ListActive(_ context.Context, limit, offset int) ([]model.Subscriber, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// newest first, matching the durable store's ordering
	active := make([]model.Subscriber, 0, len(r.subs))
	for i := len(r.subs) - 1; i >= 0; i-- {
		if r.subs[i].Status == model.StatusActive {
			active = append(active, r.subs[i])
		}
	}
	if offset >= len(active) {
		return []model.Subscriber{}, nil
	}
	end := offset + limit
	if end > len(active) {
		end = len(active)
	}
	return active[offset:end], nil
}

func (r *MemorySubscribersRepository) CountActive(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.subs {
		if s.Status == model.StatusActive {
			n++
		}
	}
	return n, nil
}
