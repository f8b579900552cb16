package gateways

import (
	"context"
	"fmt"

	protocols "github.com/giovaniif/fundraising/protocols"
	"github.com/redis/go-redis/v9"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// EventPublisherRedis PUBLISHes donation events on a channel for live
// dashboards. Delivery is fire and forget.
type EventPublisherRedis struct {
	client  redisPublisher
	channel string
}

func NewEventPublisherRedis(client *redis.Client, channel string) *EventPublisherRedis {
	return &EventPublisherRedis{client: client, channel: channel}
}

func (r *EventPublisherRedis) Publish(ctx context.Context, event protocols.DonationRecorded) error {
	payload, err := encodeDonationEvent(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
