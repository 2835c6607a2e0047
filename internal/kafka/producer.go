package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/saloonq/queue-service/pkg/logger"
)

type Producer interface {
	PublishQueueOpened(ctx context.Context, event QueueOpenedEvent) error
	PublishQueueClosed(ctx context.Context, event QueueClosedEvent) error
	PublishQueueJoined(ctx context.Context, event QueueJoinedEvent) error
	PublishQueueLeft(ctx context.Context, event QueueLeftEvent) error
	PublishWalkInAdded(ctx context.Context, event WalkInAddedEvent) error
	Close() error
}

type kafkaProducer struct {
	producer sarama.SyncProducer
	l        logger.Logger
}

func NewProducer(producer sarama.SyncProducer, l logger.Logger) Producer {
	return &kafkaProducer{
		producer: producer,
		l:        l,
	}
}

func (p *kafkaProducer) PublishQueueOpened(ctx context.Context, event QueueOpenedEvent) error {
	event.Timestamp = time.Now()
	return p.publishEvent(ctx, TopicQueueOpened, event.BarberID, event)
}

func (p *kafkaProducer) PublishQueueClosed(ctx context.Context, event QueueClosedEvent) error {
	event.Timestamp = time.Now()
	return p.publishEvent(ctx, TopicQueueClosed, event.BarberID, event)
}

func (p *kafkaProducer) PublishQueueJoined(ctx context.Context, event QueueJoinedEvent) error {
	event.Timestamp = time.Now()
	return p.publishEvent(ctx, TopicQueueJoined, event.BarberID, event)
}

func (p *kafkaProducer) PublishQueueLeft(ctx context.Context, event QueueLeftEvent) error {
	event.Timestamp = time.Now()
	return p.publishEvent(ctx, TopicQueueLeft, event.BarberID, event)
}

func (p *kafkaProducer) PublishWalkInAdded(ctx context.Context, event WalkInAddedEvent) error {
	event.Timestamp = time.Now()
	return p.publishEvent(ctx, TopicWalkInAdded, event.BarberID, event)
}

func (p *kafkaProducer) publishEvent(ctx context.Context, topic string, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key), // Partition by barber_id for ordering
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.l.Errorf(ctx, "kafka.kafkaProducer.publishEvent: %v", err)
		return fmt.Errorf("failed to send kafka message: %w", err)
	}

	p.l.Debugf(ctx, "Kafka message sent: topic=%s partition=%d offset=%d key=%s",
		topic, partition, offset, key)

	return nil
}

func (p *kafkaProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
