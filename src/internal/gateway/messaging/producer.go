package messaging

import (
	"encoding/json"

	"competition-service/src/internal/model"
	"competition-service/src/pkg/log"
	"competition-service/src/pkg/utils"

	kafka "competition-service/src/pkg/kafka/confluent"

	k "gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

// Producer serializes events of one type onto one topic, keyed by event id so
// consumers see per-entity ordering.
type Producer[T model.Event] struct {
	Producer kafka.Producer
	Topic    string
	Log      log.Log
}

func (p *Producer[T]) GetTopic() *string {
	return &p.Topic
}

func (p *Producer[T]) Send(event T) error {
	if p.Producer == nil {
		return nil
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.Log.Error("producer", "failed to marshal event", "Send", utils.ConvertString(event))
		return err
	}

	err = p.Producer.Publish(&k.Message{
		TopicPartition: k.TopicPartition{
			Topic:     p.GetTopic(),
			Partition: k.PartitionAny,
		},
		Key:   []byte(event.GetId()),
		Value: value,
	})
	if err != nil {
		p.Log.Error("producer", "failed to publish event", "Send", utils.ConvertString(event))
		return err
	}
	return nil
}
