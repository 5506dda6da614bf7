package repository

import (
	"context"

	"pendlescope/internal/domain/models"
	drepo "pendlescope/internal/domain/repository"
	pkgkafka "pendlescope/pkg/kafka"
)

// KafkaSignalPublisher emits signal-change events onto the signal topic.
// Events are keyed by market key so each market's changes stay ordered on
// one partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) drepo.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignalChange(ctx context.Context, e models.SignalChangeEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Key), e)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
