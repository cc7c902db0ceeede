package newsletter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arasdesign/newsletter-service/internal/logger"
	"github.com/arasdesign/newsletter-service/internal/metrics"
	"github.com/arasdesign/newsletter-service/internal/model"
	"github.com/arasdesign/newsletter-service/internal/ratelimit"
	"github.com/arasdesign/newsletter-service/internal/repository"
	"github.com/arasdesign/newsletter-service/internal/util"
	"go.uber.org/zap"
)

// Client-caused failures. Anything else coming out of Subscribe is a
// backend failure and is wrapped, never swallowed.
var (
	ErrMissingEmail      = errors.New("email is required")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrAlreadySubscribed = errors.New("email already subscribed")
	ErrRateLimited       = errors.New("too many attempts")
)

// EventPublisher publishes signup events. May be backed by Kafka or absent.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Service runs the subscribe pipeline: rate limit, presence, shape,
// duplicate, insert. All validation is local and runs before any store
// call.
type Service struct {
	repo    repository.SubscribersRepository
	limiter ratelimit.Limiter
	events  EventPublisher // nil when the signup pipeline is disabled

	now func() time.Time
}

// New constructs the service. events may be nil.
func New(repo repository.SubscribersRepository, limiter ratelimit.Limiter, events EventPublisher) *Service {
	return &Service{
		repo:    repo,
		limiter: limiter,
		events:  events,
		now:     time.Now,
	}
}

// Subscribe validates rawEmail and creates an active subscriber for it.
// clientID keys the attempt quota; callers pass "unknown" when the
// request origin cannot be determined.
func (s *Service) Subscribe(ctx context.Context, rawEmail, clientID string) (model.Subscriber, error) {
	allowed, err := s.limiter.Allow(ctx, clientID)
	if err != nil {
		logger.Log.Warn("rate limiter unavailable, allowing attempt", zap.Error(err))
	}
	if !allowed {
		metrics.SubscribeAttempts.WithLabelValues("rate_limited").Inc()
		return model.Subscriber{}, ErrRateLimited
	}

	if rawEmail == "" {
		metrics.SubscribeAttempts.WithLabelValues("missing_email").Inc()
		return model.Subscriber{}, ErrMissingEmail
	}
	if !util.ValidEmail(rawEmail) {
		metrics.SubscribeAttempts.WithLabelValues("invalid_email").Inc()
		return model.Subscriber{}, ErrInvalidEmail
	}
	email := util.NormalizeEmail(rawEmail)

	exists, err := s.repo.ExistsActive(ctx, email)
	if err != nil {
		metrics.SubscribeAttempts.WithLabelValues("backend_error").Inc()
		return model.Subscriber{}, fmt.Errorf("check existing subscriber: %w", err)
	}
	if exists {
		metrics.SubscribeAttempts.WithLabelValues("duplicate").Inc()
		return model.Subscriber{}, ErrAlreadySubscribed
	}

	sub := model.Subscriber{
		ID:           util.New(),
		Email:        email,
		Status:       model.StatusActive,
		SubscribedAt: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost the check-then-act race; the store's unique index decided
			metrics.SubscribeAttempts.WithLabelValues("duplicate").Inc()
			return model.Subscriber{}, ErrAlreadySubscribed
		}
		metrics.SubscribeAttempts.WithLabelValues("backend_error").Inc()
		return model.Subscriber{}, fmt.Errorf("insert subscriber: %w", err)
	}

	metrics.SubscribeAttempts.WithLabelValues("subscribed").Inc()
	s.publishSignup(sub)

	return sub, nil
}

// publishSignup is fire-and-forget: a publish failure is logged and never
// fails the subscribe.
func (s *Service) publishSignup(sub model.Subscriber) {
	if s.events == nil {
		return
	}
	ev := model.SignupEvent{SubscriberID: sub.ID, OccurredAt: sub.SubscribedAt}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Log.Warn("marshal signup event", zap.Error(err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.events.Publish(ctx, ev.SubscriberID, payload); err != nil {
			logger.Log.Warn("signup event publish failed",
				zap.String("subscriber_id", ev.SubscriberID), zap.Error(err))
		}
	}()
}

// EmailExists reports whether an active subscriber exists for email
// (case-insensitive). A backend "no rows" answer is false, not an error.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsActive(ctx, util.NormalizeEmail(email))
}

func (s *Service) Subscribers(ctx context.Context, limit, offset int) ([]model.Subscriber, error) {
	return s.repo.ListActive(ctx, limit, offset)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

// ResetRateLimits clears all limiter state without touching the
// subscriber store. Exposed only through the development escape hatch.
func (s *Service) ResetRateLimits(ctx context.Context) error {
	return s.limiter.Reset(ctx)
}
