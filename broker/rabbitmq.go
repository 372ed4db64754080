package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/logger"
	"github.com/golangid/meshserve/tracer"
	"github.com/streadway/amqp"
)

// RabbitMQOptionFunc func type
type RabbitMQOptionFunc func(*RabbitMQBroker)

// RabbitMQSetBrokerHost set custom broker host
func RabbitMQSetBrokerHost(brokers string) RabbitMQOptionFunc {
	return func(bk *RabbitMQBroker) {
		bk.brokerHost = brokers
	}
}

// RabbitMQSetExchange set exchange name, declared as durable topic exchange
func RabbitMQSetExchange(exchangeName string) RabbitMQOptionFunc {
	return func(bk *RabbitMQBroker) {
		bk.exchangeName = exchangeName
	}
}

// RabbitMQSetPublisher set custom publisher
func RabbitMQSetPublisher(pub interfaces.Publisher) RabbitMQOptionFunc {
	return func(bk *RabbitMQBroker) {
		bk.publisher = pub
	}
}

// RabbitMQBroker broker
type RabbitMQBroker struct {
	brokerHost   string
	exchangeName string
	conn         *amqp.Connection
	publisher    interfaces.Publisher
}

// NewRabbitMQBroker setup rabbitmq connection and declare exchange
func NewRabbitMQBroker(opts ...RabbitMQOptionFunc) (rabbitmq *RabbitMQBroker, err error) {
	deferFunc := logger.LogWithDefer("Load RabbitMQ broker configuration... ")
	defer func() {
		if err != nil {
			logger.LogRed(err.Error())
			return
		}
		deferFunc()
	}()

	rabbitmq = &RabbitMQBroker{exchangeName: "amq.topic"}
	for _, opt := range opts {
		opt(rabbitmq)
	}

	rabbitmq.conn, err = amqp.Dial(rabbitmq.brokerHost)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ: cannot connect to server broker: %w", err)
	}

	ch, err := rabbitmq.conn.Channel()
	if err != nil {
		rabbitmq.conn.Close()
		return nil, fmt.Errorf("RabbitMQ channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		rabbitmq.exchangeName, // name
		amqp.ExchangeTopic,    // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,
	); err != nil {
		rabbitmq.conn.Close()
		return nil, fmt.Errorf("RabbitMQ exchange declare: %w", err)
	}

	if rabbitmq.publisher == nil {
		conn := rabbitmq.conn
		rabbitmq.publisher = NewRabbitMQPublisher(rabbitmq.exchangeName, func() (amqpChannel, error) {
			return conn.Channel()
		})
	}
	return rabbitmq, nil
}

// GetPublisher method
func (r *RabbitMQBroker) GetPublisher() interfaces.Publisher {
	return r.publisher
}

// GetName method
func (r *RabbitMQBroker) GetName() types.Broker {
	return types.RabbitMQ
}

// Health method
func (r *RabbitMQBroker) Health() map[string]error {
	var err error
	if r.conn.IsClosed() {
		err = amqp.ErrClosed
	}
	return map[string]error{string(types.RabbitMQ): err}
}

// Disconnect method
func (r *RabbitMQBroker) Disconnect(ctx context.Context) error {
	deferFunc := logger.LogWithDefer("rabbitmq: disconnect...")
	defer deferFunc()

	return r.conn.Close()
}

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// rabbitMQPublisher rabbitmq
type rabbitMQPublisher struct {
	exchangeName string
	channel      func() (amqpChannel, error)
}

// NewRabbitMQPublisher setup only rabbitmq publisher, channel opened per message
func NewRabbitMQPublisher(exchangeName string, channel func() (amqpChannel, error)) interfaces.Publisher {
	return &rabbitMQPublisher{exchangeName: exchangeName, channel: channel}
}

// PublishMessage method
func (r *rabbitMQPublisher) PublishMessage(ctx context.Context, args *candishared.PublisherArgument) (err error) {
	trace, _ := tracer.StartTrace(ctx, "rabbitmq:publish_message")
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
		trace.SetError(err)
		trace.Finish()
	}()

	if err := args.Validate(); err != nil {
		return err
	}

	ch, err := r.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if args.ContentType == "" {
		args.ContentType = candihelper.HeaderMIMEApplicationJSON
	}

	trace.SetTag("exchange", r.exchangeName)
	trace.SetTag("topic", args.Topic)
	trace.SetTag("key", args.Key)

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  args.ContentType,
		MessageId:    args.Key,
		Body:         args.Message,
		Headers:      amqp.Table(args.Header),
	}
	if !args.Timestamp.IsZero() {
		msg.Timestamp = args.Timestamp
	}

	trace.Log("header", msg.Headers)
	trace.Log("message", msg.Body)

	return ch.Publish(
		r.exchangeName,
		args.Topic, // routing key
		false,      // mandatory
		false,      // immediate
		msg)
}
