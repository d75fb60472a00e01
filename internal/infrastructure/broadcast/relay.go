package broadcast

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/pkg/metrics"
)

// DefaultChannel is the Redis Pub/Sub channel shared by all API instances.
const DefaultChannel = "location-tracker:position_updated"

// RedisRelay broadcasts through Redis so that observers on every API instance
// receive each event. Run must be started on every instance to feed its hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     zerolog.Logger
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub, log zerolog.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{client: client, channel: channel, hub: hub, log: log}
}

// Broadcast publishes event to the shared channel. Local delivery happens in Run.
func (r *RedisRelay) Broadcast(ctx context.Context, event domain.PositionUpdated) error {
	frame, err := Encode(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, frame).Err(); err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}
	metrics.BroadcastPublishedTotal.Inc()
	return nil
}

// Run subscribes to the shared channel and delivers every frame to the local
// hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("relay subscribe: %w", err)
	}
	r.log.Info().Str("channel", r.channel).Msg("broadcast relay subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.Deliver([]byte(msg.Payload))
		}
	}
}
