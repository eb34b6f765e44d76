package repository

import (
	"context"
	"fmt"
	"time"

	"AethFlow/internal/domain/models"
	"AethFlow/pkg/kafka"
)

// KafkaEventPublisher emits job lifecycle events keyed by job id so all
// events for one job land on the same partition in order.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaEventPublisher(p *kafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (k *KafkaEventPublisher) PublishJobEvent(ctx context.Context, ev models.JobEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if err := k.producer.Publish(ctx, k.topic, []byte(ev.JobID), ev); err != nil {
		return fmt.Errorf("publish job event: %w", err)
	}
	return nil
}

func (k *KafkaEventPublisher) Close() error {
	return k.producer.Close()
}
