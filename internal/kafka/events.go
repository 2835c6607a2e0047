package kafka

import "time"

// Events published by the queue service, keyed by barber id so one barber's
// stream stays ordered.

type QueueOpenedEvent struct {
	BarberID  string    `json:"barber_id"`
	Timestamp time.Time `json:"timestamp"`
}

type QueueClosedEvent struct {
	BarberID  string    `json:"barber_id"`
	Timestamp time.Time `json:"timestamp"`
}

type QueueJoinedEvent struct {
	BarberID  string    `json:"barber_id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	Services  []string  `json:"services,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
	Timestamp time.Time `json:"timestamp"`
}

type QueueLeftEvent struct {
	BarberID  string    `json:"barber_id"`
	Phone     string    `json:"phone"`
	Reason    string    `json:"reason"` // customer_left, barber_removed
	LeftAt    time.Time `json:"left_at"`
	Timestamp time.Time `json:"timestamp"`
}

type WalkInAddedEvent struct {
	BarberID  string    `json:"barber_id"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic names
const (
	TopicQueueOpened = "QUEUE_OPENED"
	TopicQueueClosed = "QUEUE_CLOSED"
	TopicQueueJoined = "QUEUE_JOINED"
	TopicQueueLeft   = "QUEUE_LEFT"
	TopicWalkInAdded = "WALKIN_ADDED"
)

const (
	ReasonCustomerLeft  = "customer_left"
	ReasonBarberRemoved = "barber_removed"
)
