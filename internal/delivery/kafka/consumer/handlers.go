package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/saloonq/queue-service/internal/kafka"
	"github.com/saloonq/queue-service/internal/notification"
)

func (c *Consumer) HandleQueueJoined(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev kafka.QueueJoinedEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("failed to unmarshal queue joined event: %w", err)
	}

	c.sink.Notify(ctx, notification.Event{
		Message: fmt.Sprintf("%s joined the queue at position %d", ev.Name, ev.Position),
		Kind:    notification.KindInfo,
	})

	c.l.Debugf(ctx, "Queue joined event processed: barber_id=%s phone=%s", ev.BarberID, ev.Phone)

	return nil
}

func (c *Consumer) HandleQueueLeft(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev kafka.QueueLeftEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("failed to unmarshal queue left event: %w", err)
	}

	c.sink.Notify(ctx, notification.Event{
		Message: fmt.Sprintf("A customer left the queue (%s)", ev.Reason),
		Kind:    notification.KindInfo,
	})

	c.l.Debugf(ctx, "Queue left event processed: barber_id=%s phone=%s", ev.BarberID, ev.Phone)

	return nil
}

func (c *Consumer) HandleWalkInAdded(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev kafka.WalkInAddedEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("failed to unmarshal walk-in added event: %w", err)
	}

	c.sink.Notify(ctx, notification.Event{
		Message: fmt.Sprintf("Walk-in added at position %d", ev.Position),
		Kind:    notification.KindInfo,
	})

	c.l.Debugf(ctx, "Walk-in added event processed: barber_id=%s phone=%s", ev.BarberID, ev.Phone)

	return nil
}
