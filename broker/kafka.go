package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/factory/types"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/logger"
	"github.com/golangid/meshserve/tracer"
)

// KafkaOptionFunc func type
type KafkaOptionFunc func(*KafkaBroker)

// KafkaSetBrokerHost set custom broker host
func KafkaSetBrokerHost(brokers []string) KafkaOptionFunc {
	return func(kb *KafkaBroker) {
		kb.BrokerHost = brokers
	}
}

// KafkaSetConfig set custom sarama configuration
func KafkaSetConfig(cfg *sarama.Config) KafkaOptionFunc {
	return func(kb *KafkaBroker) {
		kb.Config = cfg
	}
}

// KafkaSetPublisher set custom publisher
func KafkaSetPublisher(pub interfaces.Publisher) KafkaOptionFunc {
	return func(kb *KafkaBroker) {
		kb.publisher = pub
	}
}

// GetDefaultKafkaConfig construct default kafka producer config
func GetDefaultKafkaConfig(clientID, version string, additionalConfigFunc ...func(*sarama.Config)) *sarama.Config {
	if version == "" {
		version = "2.0.0"
	}

	cfg := sarama.NewConfig()
	cfg.Version, _ = sarama.ParseKafkaVersion(version)
	if clientID != "" {
		cfg.ClientID = clientID
	}

	cfg.Producer.Retry.Max = 15
	cfg.Producer.Retry.Backoff = 50 * time.Millisecond
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true

	for _, additionalFunc := range additionalConfigFunc {
		additionalFunc(cfg)
	}
	return cfg
}

// KafkaBroker configuration
type KafkaBroker struct {
	BrokerHost []string
	Config     *sarama.Config
	Client     sarama.Client
	publisher  interfaces.Publisher
}

// NewKafkaBroker setup kafka client and sync publisher
func NewKafkaBroker(opts ...KafkaOptionFunc) (kb *KafkaBroker, err error) {
	deferFunc := logger.LogWithDefer("Load Kafka broker configuration... ")
	defer func() {
		if err != nil {
			logger.LogRed(err.Error())
			return
		}
		deferFunc()
	}()

	kb = new(KafkaBroker)
	for _, opt := range opts {
		opt(kb)
	}
	if kb.Config == nil {
		kb.Config = GetDefaultKafkaConfig("", "")
	}

	kb.Client, err = sarama.NewClient(kb.BrokerHost, kb.Config)
	if err != nil {
		return nil, fmt.Errorf("%w. Brokers: %s", err, strings.Join(kb.BrokerHost, ", "))
	}

	if kb.publisher == nil {
		producer, err := sarama.NewSyncProducerFromClient(kb.Client)
		if err != nil {
			kb.Client.Close()
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		kb.publisher = NewKafkaPublisher(producer, strings.Join(kb.BrokerHost, ","))
	}
	return kb, nil
}

// GetPublisher method
func (k *KafkaBroker) GetPublisher() interfaces.Publisher {
	return k.publisher
}

// GetName method
func (k *KafkaBroker) GetName() types.Broker {
	return types.Kafka
}

// Health method
func (k *KafkaBroker) Health() map[string]error {
	var err error
	if len(k.Client.Brokers()) == 0 {
		err = errors.New("not ok")
	}
	return map[string]error{string(types.Kafka): err}
}

// Disconnect method
func (k *KafkaBroker) Disconnect(ctx context.Context) error {
	defer logger.LogWithDefer("\x1b[33;5mkafka_broker\x1b[0m: disconnect...")()

	if closer, ok := k.publisher.(interface{ Close() error }); ok {
		closer.Close()
	}
	return k.Client.Close()
}

// kafkaPublisher kafka publisher
type kafkaPublisher struct {
	producer sarama.SyncProducer
	broker   string
}

// NewKafkaPublisher setup only kafka publisher with sync producer
func NewKafkaPublisher(producer sarama.SyncProducer, brokers string) interfaces.Publisher {
	return &kafkaPublisher{producer: producer, broker: brokers}
}

// PublishMessage method
func (p *kafkaPublisher) PublishMessage(ctx context.Context, args *candishared.PublisherArgument) (err error) {
	trace, _ := tracer.StartTrace(ctx, "kafka:publish_message")
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

	trace.SetTag("brokers", p.broker)
	trace.SetTag("topic", args.Topic)
	trace.SetTag("key", args.Key)
	trace.Log("header", args.Header)
	trace.Log("message", args.Message)

	msg := &sarama.ProducerMessage{
		Topic:     kafkaTopicName(args.Topic),
		Value:     sarama.ByteEncoder(args.Message),
		Timestamp: time.Now(),
	}
	if args.Key != "" {
		msg.Key = sarama.StringEncoder(args.Key)
	}
	if !args.Timestamp.IsZero() {
		msg.Timestamp = args.Timestamp
	}

	traceHeader := map[string]string{}
	trace.InjectRequestHeader(traceHeader)
	for k, v := range traceHeader {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	for keyHeader, valueHeader := range args.Header {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(keyHeader), Value: []byte(fmt.Sprint(valueHeader))})
	}

	_, _, err = p.producer.SendMessage(msg)
	return err
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// kafkaTopicName replace characters outside of kafka legal topic charset [a-zA-Z0-9._-]
func kafkaTopicName(topic string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		}
		return '.'
	}, topic)
}
