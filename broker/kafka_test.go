package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/golangid/meshserve/candishared"
	"github.com/stretchr/testify/assert"
)

func TestKafkaPublisher(t *testing.T) {
	producer := mocks.NewSyncProducer(t, GetDefaultKafkaConfig("meshserve", "2.1.0"))
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "users.users.insert" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisher(producer, "localhost:9092")

	err := pub.PublishMessage(context.Background(), &candishared.PublisherArgument{
		Topic: "users:users:insert", Key: "1", Message: []byte(`{"id":1}`),
		Header: map[string]interface{}{"event_id": "abc"},
	})
	assert.NoError(t, err)

	err = pub.PublishMessage(context.Background(), &candishared.PublisherArgument{Topic: "users:users:delete", Message: []byte(`true`)})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	err = pub.PublishMessage(context.Background(), &candishared.PublisherArgument{Topic: "empty"})
	assert.EqualError(t, err, "message cannot empty")

	assert.NoError(t, pub.(*kafkaPublisher).Close())
}

func TestKafkaTopicName(t *testing.T) {
	assert.Equal(t, "users.users.insert", kafkaTopicName("users:users:insert"))
	assert.Equal(t, "a-b_c.d", kafkaTopicName("a-b_c.d"))
}

func TestGetDefaultKafkaConfig(t *testing.T) {
	cfg := GetDefaultKafkaConfig("meshserve", "", func(c *sarama.Config) { c.Producer.Retry.Max = 3 })
	assert.Equal(t, "meshserve", cfg.ClientID)
	assert.Equal(t, sarama.V2_0_0_0, cfg.Version)
	assert.Equal(t, 3, cfg.Producer.Retry.Max)
	assert.True(t, cfg.Producer.Return.Successes)
}
