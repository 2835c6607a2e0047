// Package notification is the injected sink for user-facing feedback. The
// mobile clients render these as toasts; the service layer only reports a
// message and a kind and never touches rendering.
package notification

import (
	"context"
	"sync"

	"github.com/saloonq/queue-service/pkg/logger"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Event is one notification. OnConfirm, when set, is the action to run if the
// user confirms (destructive flows like leaving the queue ask first).
type Event struct {
	Message   string
	Kind      Kind
	OnConfirm func()
}

type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

type logNotifier struct {
	l logger.Logger
}

// NewLogNotifier reports notifications through the service log. Used when the
// service runs headless, where there is no toast surface to hand events to.
func NewLogNotifier(l logger.Logger) Notifier {
	return &logNotifier{l: l}
}

func (n *logNotifier) Notify(ctx context.Context, ev Event) {
	switch ev.Kind {
	case KindError:
		n.l.Errorf(ctx, "notification: %s", ev.Message)
	case KindWarning:
		n.l.Warnf(ctx, "notification: %s", ev.Message)
	default:
		n.l.Infof(ctx, "notification: %s", ev.Message)
	}
}

type nopNotifier struct{}

func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) Notify(context.Context, Event) {}

// Collector records events for inspection; the test double for Notifier.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Notify(_ context.Context, ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Collector) Last() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[len(c.events)-1], true
}
