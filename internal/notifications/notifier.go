// Package notifications provides real-time event delivery for users and the
// admin moderation feed.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AdminEventsChannel carries moderation events for the admin feed.
const AdminEventsChannel = "events:admin"

// Event types published to the admin feed.
const (
	EventVerificationSubmitted = "verification_submitted"
	EventVerificationReviewed  = "verification_reviewed"
	EventProductSubmitted      = "product_submitted"
	EventProductReviewed       = "product_reviewed"
	EventAdminTransition       = "admin_transition"
)

// Event is the payload published on the admin feed channel.
type Event struct {
	Type       string    `json:"type"`
	ActorType  string    `json:"actor_type"`
	ActorID    uint      `json:"actor_id"`
	TargetType string    `json:"target_type,omitempty"`
	TargetID   uint      `json:"target_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishAdminEvent publishes a moderation event to the admin feed channel.
func (n *Notifier) PublishAdminEvent(ctx context.Context, event Event) error {
	if n.rdb == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, AdminEventsChannel, string(payload)).Err()
}

// StartSubscriber subscribes to user notification channels and the admin feed
// and calls onMessage for each incoming message.
func (n *Notifier) StartSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*", AdminEventsChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in notification subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
