package consumer

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
	"github.com/saloonq/queue-service/internal/kafka"
	"github.com/saloonq/queue-service/internal/notification"
	"github.com/saloonq/queue-service/pkg/logger"
)

// Consumer tails the queue event topics and forwards them to the notification
// sink, which is how downstream surfaces (barber dashboard, ops tooling) hear
// about queue activity without watching the store.
type Consumer struct {
	consGr sarama.ConsumerGroup
	sink   notification.Notifier
	l      logger.Logger
	wg     sync.WaitGroup
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	sink notification.Notifier,
	l logger.Logger,
) *Consumer {
	return &Consumer{
		consGr: consGr,
		sink:   sink,
		l:      l,
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case kafka.TopicQueueJoined:
		return c.HandleQueueJoined(ctx, msg)
	case kafka.TopicQueueLeft:
		return c.HandleQueueLeft(ctx, msg)
	case kafka.TopicWalkInAdded:
		return c.HandleWalkInAdded(ctx, msg)
	default:
		c.l.Warnf(ctx, "Unknown topic: %s", msg.Topic)
		return nil
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	topics := []string{kafka.TopicQueueJoined, kafka.TopicQueueLeft, kafka.TopicWalkInAdded}
	c.wg.Go(func() {
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				c.l.Errorf(ctx, "delivery.kafka.consumer.Consumer.Start: %v", err)
			}

			if ctx.Err() != nil {
				c.l.Infof(ctx, "delivery.kafka.consumer.Consumer.Start: %v", ctx.Err())
				return
			}
		}
	})

	// Handle errors
	c.wg.Go(func() {
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.Consumer.Start: %v", err)
		}
	})

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.processMessage(ss.Context(), message); err != nil {
				c.l.Errorf(ss.Context(), "delivery.kafka.consumer.Consumer.ConsumeClaim: %v", err)
				continue
			}

			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}
