package redisstate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/hub"
)

// RedisFanout relays hub envelopes between server instances over one
// Redis pub/sub channel.
type RedisFanout struct {
	client  *redis.Client
	channel string
}

func NewRedisFanout(client *redis.Client, keyPrefix string) *RedisFanout {
	if client == nil {
		panic("redis client cannot be nil for RedisFanout")
	}
	if keyPrefix == "" {
		keyPrefix = "beerdegu:"
	}
	return &RedisFanout{client: client, channel: keyPrefix + "ws:fanout"}
}

func (f *RedisFanout) Publish(ctx context.Context, env hub.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal envelope for group %s: %w", env.Group, err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"channel":      f.channel,
			"group":        env.Group,
			"payload_size": len(payload),
		}).WithError(err).Error("Redis Publish failed")
		return fmt.Errorf("redis: failed to publish to channel %s: %w", f.channel, err)
	}
	return nil
}

// Subscribe feeds every envelope on the channel to deliver until ctx is done.
func (f *RedisFanout) Subscribe(ctx context.Context, deliver func(hub.Envelope)) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	// wait for the subscription to be confirmed before reporting ready
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: failed to subscribe to %s: %w", f.channel, err)
	}
	logrus.WithField("channel", f.channel).Info("Subscribed to websocket fanout")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis: fanout channel %s closed", f.channel)
			}
			var env hub.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logrus.WithError(err).Warn("Dropping malformed fanout envelope")
				continue
			}
			deliver(env)
		}
	}
}
