package config

import (
	"context"
	"fmt"

	"github.com/golangid/meshserve/broker"
	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/config/env"
	"github.com/golangid/meshserve/logger"
	"github.com/golangid/meshserve/pubsub"
)

// Config runtime dependencies shared by every subgraph executor
type Config struct {
	Env     env.Env
	Brokers *broker.Broker
	PubSub  interfaces.PubSub
	logger  interfaces.Logger
}

// brokerConstructor overridden in tests
var brokerConstructor = newBroker

// Init connect every broker listed in PUBSUB_BROKERS and build pubsub forwarding to them,
// fail when ctx is done before all brokers are connected
func Init(ctx context.Context, e env.Env, log interfaces.Logger) (*Config, error) {
	if log == nil {
		log = logger.NewNop()
	}

	cfgChan := make(chan *Config, 1)
	errConnect := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errConnect <- fmt.Errorf("%v", r)
			}
		}()

		brokers, err := initBrokers(e)
		if err != nil {
			errConnect <- err
			return
		}
		cfgChan <- &Config{
			Env:     e,
			Brokers: brokers,
			PubSub:  pubsub.New(log.Child("pubsub"), pubsub.WithPublishers(brokers.Publishers()...)),
			logger:  log,
		}
	}()

	select {
	case cfg := <-cfgChan:
		return cfg, nil
	case err := <-errConnect:
		return nil, fmt.Errorf("failed init configuration: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout to init configuration: %w", ctx.Err())
	}
}

func initBrokers(e env.Env) (*broker.Broker, error) {
	var brokers []interfaces.Broker
	mErr := candihelper.NewMultiError()
	for _, brokerType := range e.Brokers() {
		bk, err := brokerConstructor(brokerType, e)
		if err != nil {
			mErr.Append(string(brokerType), err)
			continue
		}
		brokers = append(brokers, bk)
	}

	if mErr.HasError() {
		for _, bk := range brokers {
			bk.Disconnect(context.Background())
		}
		return nil, mErr
	}
	return broker.InitBrokers(brokers...), nil
}

func newBroker(brokerType types.Broker, e env.Env) (interfaces.Broker, error) {
	switch brokerType {
	case types.Kafka:
		return broker.NewKafkaBroker(
			broker.KafkaSetBrokerHost(e.Kafka.Brokers),
			broker.KafkaSetConfig(broker.GetDefaultKafkaConfig(e.Kafka.ClientID, e.Kafka.ClientVersion)),
		)
	case types.RabbitMQ:
		return broker.NewRabbitMQBroker(
			broker.RabbitMQSetBrokerHost(e.RabbitMQ.Broker),
			broker.RabbitMQSetExchange(e.RabbitMQ.ExchangeName),
		)
	case types.Redis:
		return broker.NewRedisBroker(broker.NewRedisPool(e.RedisDSN)), nil
	case types.NATS:
		return broker.NewNATSBroker(broker.NATSSetURL(e.NATSURL))
	}
	return nil, fmt.Errorf("unsupported broker %s", brokerType)
}

// Exit publish destroy event then release pubsub and brokers, think as deferred function in main
func (c *Config) Exit(ctx context.Context) error {
	if err := c.PubSub.Publish(ctx, pubsub.TopicDestroy, nil); err != nil {
		c.logger.Errorf("publish %s: %v", pubsub.TopicDestroy, err)
	}

	mErr := candihelper.NewMultiError()
	if err := c.PubSub.Close(ctx); err != nil {
		mErr.Append("pubsub", err)
	}
	if err := c.Brokers.Disconnect(ctx); err != nil {
		mErr.Append("broker", err)
	}
	if mErr.HasError() {
		return mErr
	}
	logger.LogYellow("Config: Success close all connection")
	return nil
}
