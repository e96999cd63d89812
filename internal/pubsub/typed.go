package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Topic is a family of topics sharing a prefix and a payload type, one
// topic per key (e.g. "session.<sid>").
type Topic[T any] struct {
	prefix string
}

// NewTopic creates a typed topic family.
func NewTopic[T any](prefix string) Topic[T] {
	return Topic[T]{prefix: prefix}
}

// Name returns the concrete topic for key.
func (t Topic[T]) Name(key string) string {
	return t.prefix + "." + key
}

// Publish encodes payload as JSON and sends it on the topic for key.
func (t Topic[T]) Publish(ctx context.Context, p Publisher, key, userID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", t.prefix, err)
	}
	return p.Publish(ctx, Message{
		Topic:   t.Name(key),
		UserID:  userID,
		Payload: data,
	})
}

// Subscribe delivers decoded payloads from the topic for key to fn.
func (t Topic[T]) Subscribe(ctx context.Context, s Subscriber, key string, fn func(ctx context.Context, payload T) error) error {
	return s.Subscribe(ctx, t.Name(key), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", t.prefix, err)
		}
		return fn(ctx, payload)
	})
}
