package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"garage_config/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const EventsChannel = "garage-events"

// RedisRelay shares garage events between API instances. Publish writes to
// a Redis channel; every instance's relay forwards what it receives on that
// channel to its local hub.
type RedisRelay struct {
	client  *redis.Client
	hub     *Hub
	channel string
	log     *zap.Logger
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisRelay(client *redis.Client, hub *Hub, log *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, hub: hub, channel: EventsChannel, log: log}
}

// Publish sends event through Redis. If Redis rejects it the event is still
// delivered to this instance's clients.
func (r *RedisRelay) Publish(ctx context.Context, event domain.GarageEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.log.Error("failed to marshal garage event", zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.Warn("redis publish failed, delivering locally",
			zap.String("event", string(event.Event)), zap.Error(err))
		r.hub.Broadcast(event)
	}
}

// Start subscribes to the events channel and forwards messages to the hub
// until ctx is cancelled. It returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("RedisRelay.Start (subscribing to %s): %w", r.channel, err)
	}
	r.log.Info("redis event relay subscribed", zap.String("channel", r.channel))

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event domain.GarageEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.log.Warn("dropping malformed relay message", zap.Error(err))
					continue
				}
				r.hub.Broadcast(event)
			}
		}
	}()
	return nil
}
