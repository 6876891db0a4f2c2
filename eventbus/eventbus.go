package eventbus

import "context"

// Publisher publishes pipeline events to a topic. The matcher only produces;
// downstream consumers (notifications, analytics) live in other services.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
	Close()
}

// Noop is used when Kafka is disabled in config. Every publish succeeds
// silently.
type Noop struct{}

func (Noop) Publish(ctx context.Context, topic string, key string, event any) error {
	return nil
}

func (Noop) Close() {}
