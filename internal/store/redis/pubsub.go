package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/gosuda/hrm/internal/domain"
)

// PubSub fans activity events out over Redis channels.
type PubSub struct {
	client *redis.Client
}

// NewPubSub wraps an existing client.
func NewPubSub(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

// PublishActivity sends an audit entry to its company channel (when it has
// one) and to the global activity channel.
func (ps *PubSub) PublishActivity(ctx context.Context, e *domain.AuditEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishActivity: marshal: %w", err)
	}

	pipe := ps.client.Pipeline()
	if e.CompanyID != nil {
		pipe.Publish(ctx, ActivityChannel(*e.CompanyID), payload)
	}
	pipe.Publish(ctx, GlobalActivityChannel(), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis.PubSub.PublishActivity: %w", err)
	}
	return nil
}

func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// ActivityChannel returns the Redis channel name for one company's activity.
func ActivityChannel(companyID int64) string {
	return "activity:company:" + strconv.FormatInt(companyID, 10)
}

// GlobalActivityChannel carries activity from every company.
func GlobalActivityChannel() string {
	return "activity:all"
}
