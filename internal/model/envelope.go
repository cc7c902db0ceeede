package model

import "time"

// SignupEvent is the payload published to Kafka after a successful subscribe.
// It deliberately carries no email address.
type SignupEvent struct {
	SubscriberID string    `json:"subscriber_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}
