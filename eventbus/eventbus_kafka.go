package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"charity-matcher/logger"
)

// KafkaPublisher is a producer-only Publisher backed by confluent-kafka-go.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher initializes the Kafka producer and starts draining its
// event channel so delivery reports do not pile up.
func NewKafkaPublisher(brokers string) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           5,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					logger.Log.Errorf("kafka delivery failed %v: %v", ev.TopicPartition, ev.TopicPartition.Error)
				}
			case kafka.Error:
				logger.Log.Errorf("kafka error: %v", ev)
			}
		}
	}()

	return &KafkaPublisher{producer: p}, nil
}

// Publish marshals the event and waits for the delivery report.
func (k *KafkaPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
		Key:            []byte(key),
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("produce message: %w", err)
	}

	select {
	case ev := <-deliveryChan:
		m := ev.(*kafka.Message)
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("deliver message: %w", m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// Close flushes outstanding messages for up to five seconds, then shuts down
// the producer.
func (k *KafkaPublisher) Close() {
	if k.producer == nil {
		return
	}
	if remaining := k.producer.Flush(5000); remaining > 0 {
		logger.Log.Warnf("%d kafka messages still pending after flush", remaining)
	}
	k.producer.Close()
	logger.Log.Info("kafka producer closed")
}
