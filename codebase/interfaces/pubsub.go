package interfaces

import "context"

// PubSub abstraction, event publication handle passed to subgraph executors
type PubSub interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	// Subscribe register handler for topic, return subscription id for Unsubscribe
	Subscribe(topic string, handler func(payload interface{})) (int, error)
	Unsubscribe(id int)
	Topics() []string
	Close(ctx context.Context) error
}
