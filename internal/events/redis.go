package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vytor/cognivia/internal/logger"
)

const channelPrefix = "calendar_events:"

// ChannelFor returns the pub/sub channel carrying a user's events.
func ChannelFor(userID string) string {
	return channelPrefix + userID
}

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisBridge publishes events locally and to Redis, and relays events
// published by other instances into the local broker.
type RedisBridge struct {
	client *redis.Client
	local  *Broker
	origin string
}

func NewRedisBridge(client *redis.Client, local *Broker) *RedisBridge {
	return &RedisBridge{
		client: client,
		local:  local,
		origin: uuid.NewString(),
	}
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

func (r *RedisBridge) Publish(ctx context.Context, e Event) {
	r.local.Publish(ctx, e)

	data, err := encodeEnvelope(r.origin, e)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("events").Error("failed to encode %s event: %v", e.Type, err)
		return
	}
	if err := r.client.Publish(ctx, ChannelFor(e.UserID), data).Err(); err != nil {
		logger.FromContext(ctx).WithPrefix("events").Warn("failed to publish %s to redis: %v", e.Type, err)
	}
}

// Run relays remote events until ctx is cancelled.
func (r *RedisBridge) Run(ctx context.Context) {
	log := logger.FromContext(ctx).WithPrefix("events")

	pubsub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()
	log.Info("relaying redis events (origin=%s)", r.origin)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info("redis relay stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			e, remote, err := decodeEnvelope(r.origin, msg.Channel, []byte(msg.Payload))
			if err != nil {
				log.Warn("discarding malformed message on %s: %v", msg.Channel, err)
				continue
			}
			if remote {
				r.local.Publish(ctx, e)
			}
		}
	}
}

func encodeEnvelope(origin string, e Event) ([]byte, error) {
	return json.Marshal(envelope{Origin: origin, Event: e})
}

// decodeEnvelope reports remote=false for messages this instance sent.
func decodeEnvelope(origin, channel string, data []byte) (Event, bool, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, false, err
	}
	if want := strings.TrimPrefix(channel, channelPrefix); env.Event.UserID != want {
		return Event{}, false, fmt.Errorf("event for user %q on channel of %q", env.Event.UserID, want)
	}
	return env.Event, env.Origin != origin, nil
}
