package types

// Broker is the name of an external message broker receiving pubsub events
type Broker string

// Protocol is the scheme of a served listener
type Protocol string

const (
	// Kafka broker
	Kafka Broker = "kafka"
	// RabbitMQ broker
	RabbitMQ Broker = "rabbitmq"
	// Redis broker
	Redis Broker = "redis"
	// NATS broker
	NATS Broker = "nats"

	// HTTP protocol
	HTTP Protocol = "http"
	// HTTPS protocol
	HTTPS Protocol = "https"
)

// ParseBroker return broker type from given name, ok false if unknown
func ParseBroker(name string) (Broker, bool) {
	switch b := Broker(name); b {
	case Kafka, RabbitMQ, Redis, NATS:
		return b, true
	}
	return "", false
}
