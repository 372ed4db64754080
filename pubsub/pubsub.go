package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/logger"
	"github.com/google/uuid"
)

// TopicDestroy lifecycle topic published on shutdown, never forwarded to brokers
const TopicDestroy = "destroy"

// ErrClosed returned by Publish and Subscribe after Close
var ErrClosed = errors.New("pubsub: closed")

// Event envelope forwarded to external brokers
type Event struct {
	ID        string      `json:"id"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type subscription struct {
	id      int
	topic   string
	handler func(payload interface{})
}

type (
	option struct {
		publishers []interfaces.Publisher
	}

	// OptionFunc type
	OptionFunc func(*option)
)

// WithPublishers forward every published event to publishers
func WithPublishers(publishers ...interfaces.Publisher) OptionFunc {
	return func(o *option) {
		o.publishers = append(o.publishers, publishers...)
	}
}

type pubSub struct {
	logger     interfaces.Logger
	publishers []interfaces.Publisher

	mu     sync.RWMutex
	lastID int
	subs   map[string][]subscription
	closed bool
}

// New in process pubsub, handlers are called synchronously in subscription order
func New(log interfaces.Logger, opts ...OptionFunc) interfaces.PubSub {
	var opt option
	for _, o := range opts {
		o(&opt)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &pubSub{
		logger:     log,
		publishers: opt.publishers,
		subs:       make(map[string][]subscription),
	}
}

func (p *pubSub) Publish(ctx context.Context, topic string, payload interface{}) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	subs := append([]subscription(nil), p.subs[topic]...)
	p.mu.RUnlock()

	for _, sub := range subs {
		p.deliver(sub, payload)
	}

	if topic != TopicDestroy && len(p.publishers) > 0 {
		p.forward(ctx, topic, payload)
	}
	return nil
}

func (p *pubSub) deliver(sub subscription, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("pubsub handler %s#%d panic: %v", sub.topic, sub.id, r)
		}
	}()
	sub.handler(payload)
}

func (p *pubSub) forward(ctx context.Context, topic string, payload interface{}) {
	event := Event{ID: uuid.NewString(), Topic: topic, Payload: payload, Timestamp: time.Now()}
	message, err := json.Marshal(event)
	if err != nil {
		p.logger.Errorf("pubsub encode %s: %v", topic, err)
		return
	}

	for _, pub := range p.publishers {
		err := pub.PublishMessage(ctx, &candishared.PublisherArgument{
			Topic:       topic,
			Key:         event.ID,
			Header:      map[string]interface{}{"event_id": event.ID},
			ContentType: "application/json",
			Message:     message,
			Timestamp:   event.Timestamp,
		})
		if err != nil {
			p.logger.Errorf("pubsub forward %s: %v", topic, err)
		}
	}
}

func (p *pubSub) Subscribe(topic string, handler func(payload interface{})) (int, error) {
	if handler == nil {
		return 0, fmt.Errorf("pubsub: nil handler for topic %s", topic)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	p.lastID++
	p.subs[topic] = append(p.subs[topic], subscription{id: p.lastID, topic: topic, handler: handler})
	return p.lastID, nil
}

func (p *pubSub) Unsubscribe(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for topic, subs := range p.subs {
		for i, sub := range subs {
			if sub.id != id {
				continue
			}
			subs = append(subs[:i:i], subs[i+1:]...)
			if len(subs) == 0 {
				delete(p.subs, topic)
			} else {
				p.subs[topic] = subs
			}
			return
		}
	}
}

func (p *pubSub) Topics() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	topics := make([]string, 0, len(p.subs))
	for topic := range p.subs {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

func (p *pubSub) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.subs = make(map[string][]subscription)
	return nil
}
