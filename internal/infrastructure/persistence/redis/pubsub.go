package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/aura-hub/intervention-hub/internal/infrastructure/messaging"
)

// PubSub adapts the go-redis client to the messaging.RedisClient interface
// so the distributed event bus does not depend on a concrete Redis driver.
type PubSub struct {
	client *redis.Client
	mu     sync.Mutex
	subs   []*redis.PubSub
	closed bool
}

// NewPubSub creates a PubSub adapter on top of an existing cache client.
func NewPubSub(cache *Cache) *PubSub {
	return &PubSub{client: cache.Client()}
}

// Publish sends a message to a channel.
func (p *PubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	return p.client.Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to channels and returns a stream of messages.
// The stream is closed when the context is cancelled or the adapter closes.
func (p *PubSub) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	sub := p.client.Subscribe(ctx, channels...)

	// Wait for the subscription to be confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes all active subscriptions. The underlying client is owned by
// the Cache and stays open.
func (p *PubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var firstErr error
	for _, sub := range p.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.subs = nil

	return firstErr
}
