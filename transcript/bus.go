package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	streamKeyFormat   = "user:%s:voice"
	defaultBlock      = 5 * time.Second
	defaultBatchCount = 50
)

// Entry is the typed form of a voice activity stream record.
type Entry struct {
	ID     string         `json:"id"`
	Stream string         `json:"stream"`
	UserID string         `json:"user_id"`
	Values map[string]any `json:"values"`
}

// Bus records voice function-call activity on a per-user Redis stream so
// dashboards can tail what the assistant did.
type Bus struct {
	client *redis.Client
}

// NewBus creates a transcript bus for the given redis client.
func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client}
}

// StreamKey returns the canonical voice activity stream key for a user.
func StreamKey(userID string) string {
	if strings.TrimSpace(userID) == "" {
		userID = "demo-user"
	}
	return fmt.Sprintf(streamKeyFormat, userID)
}

// Append writes a payload to the user's activity stream, attaching a ts if
// missing.
func (b *Bus) Append(ctx context.Context, userID string, values map[string]any) (string, error) {
	if b == nil || b.client == nil {
		return "", fmt.Errorf("transcript bus not configured")
	}

	if values == nil {
		values = make(map[string]any)
	}
	if _, ok := values["ts"]; !ok {
		values["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	return b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(userID),
		Values: values,
	}).Result()
}

// RecordFunctionCall appends the outcome of one dispatched function call.
func (b *Bus) RecordFunctionCall(ctx context.Context, userID, correlationID, function string, success bool, spoken string) (string, error) {
	return b.Append(ctx, userID, map[string]any{
		"type":        "function_call",
		"correlation": correlationID,
		"function":    function,
		"success":     fmt.Sprintf("%t", success),
		"spoken":      spoken,
	})
}

// Tail blocks for new entries after afterID and returns them with the latest
// ID observed.
func (b *Bus) Tail(ctx context.Context, userID, afterID string) ([]Entry, string, error) {
	if b == nil || b.client == nil {
		return nil, afterID, fmt.Errorf("transcript bus not configured")
	}

	if strings.TrimSpace(afterID) == "" {
		afterID = "$"
	}

	res, err := b.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{StreamKey(userID), afterID},
		Count:   defaultBatchCount,
		Block:   defaultBlock,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, afterID, nil
		}
		return nil, afterID, err
	}

	entries := make([]Entry, 0)
	nextID := afterID

	for _, stream := range res {
		for _, msg := range stream.Messages {
			values := make(map[string]any, len(msg.Values))
			for k, v := range msg.Values {
				values[k] = v
			}
			entries = append(entries, Entry{
				ID:     msg.ID,
				Stream: stream.Stream,
				UserID: userIDFromStream(stream.Stream),
				Values: values,
			})
			nextID = msg.ID
		}
	}

	return entries, nextID, nil
}

// Length returns the number of entries on a user's activity stream.
func (b *Bus) Length(ctx context.Context, userID string) (int64, error) {
	if b == nil || b.client == nil {
		return 0, fmt.Errorf("transcript bus not configured")
	}
	return b.client.XLen(ctx, StreamKey(userID)).Result()
}

func userIDFromStream(stream string) string {
	parts := strings.Split(stream, ":")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
