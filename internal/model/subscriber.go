package model

import "time"

type SubscriberStatus string

const (
	StatusActive       SubscriberStatus = "active"
	StatusUnsubscribed SubscriberStatus = "unsubscribed"
)

func (s SubscriberStatus) String() string {
	return string(s)
}

func (s SubscriberStatus) Valid() bool {
	return s == StatusActive || s == StatusUnsubscribed
}

// Subscriber is the DB entity persisted in the newsletter_subscribers table.
// Email is stored normalized (lower-case); uniqueness among active rows is
// enforced by a partial unique index, not by application code.
type Subscriber struct {
	ID           string           `db:"id" json:"id"`
	Email        string           `db:"email" json:"email"`
	Status       SubscriberStatus `db:"status" json:"status"`
	SubscribedAt time.Time        `db:"subscribed_at" json:"subscribedAt"`
	CreatedAt    time.Time        `db:"created_at" json:"-"`
	UpdatedAt    time.Time        `db:"updated_at" json:"-"`
}
