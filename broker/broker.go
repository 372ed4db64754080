package broker

import (
	"context"

	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/golangid/meshserve/codebase/interfaces"
)

// Broker model
type Broker struct {
	brokers map[types.Broker]interfaces.Broker
}

/*
InitBrokers register all broker receiving pubsub events

* for Kafka, pass NewKafkaBroker(...KafkaOptionFunc) in param, configuration from env
KAFKA_BROKERS, KAFKA_CLIENT_ID, KAFKA_CLIENT_VERSION

* for RabbitMQ, pass NewRabbitMQBroker(...RabbitMQOptionFunc) in param, configuration from env
RABBITMQ_BROKER, RABBITMQ_EXCHANGE_NAME

* for Redis, pass NewRedisBroker(pool) in param, pool from REDIS_DSN

* for NATS, pass NewNATSBroker(...NATSOptionFunc) in param, configuration from env NATS_URL
*/
func InitBrokers(brokers ...interfaces.Broker) *Broker {
	brokerInst := &Broker{
		brokers: make(map[types.Broker]interfaces.Broker),
	}
	for _, bk := range brokers {
		brokerInst.RegisterBroker(bk.GetName(), bk)
	}
	return brokerInst
}

// GetBrokers get all registered broker
func (b *Broker) GetBrokers() map[types.Broker]interfaces.Broker {
	return b.brokers
}

// RegisterBroker register new broker
func (b *Broker) RegisterBroker(brokerName types.Broker, bk interfaces.Broker) {
	if b.brokers == nil {
		b.brokers = make(map[types.Broker]interfaces.Broker)
	}
	if _, ok := b.brokers[brokerName]; ok {
		panic("Register broker: " + string(brokerName) + " has been registered")
	}
	b.brokers[brokerName] = bk
}

// Publishers return publisher of every registered broker, ordered by broker name
func (b *Broker) Publishers() []interfaces.Publisher {
	var publishers []interfaces.Publisher
	for _, name := range candihelper.SortedKeys(b.brokers) {
		if pub := b.brokers[name].GetPublisher(); pub != nil {
			publishers = append(publishers, pub)
		}
	}
	return publishers
}

// Health check all registered broker
func (b *Broker) Health() map[string]error {
	health := make(map[string]error)
	for _, bk := range b.brokers {
		for k, v := range bk.Health() {
			health[k] = v
		}
	}
	return health
}

// Disconnect disconnect all registered broker
func (b *Broker) Disconnect(ctx context.Context) error {
	mErr := candihelper.NewMultiError()
	for name, broker := range b.brokers {
		mErr.Append(string(name), broker.Disconnect(ctx))
	}
	if mErr.HasError() {
		return mErr
	}
	return nil
}
