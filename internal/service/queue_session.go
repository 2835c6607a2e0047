package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/saloonq/queue-service/internal/models"
	"github.com/saloonq/queue-service/internal/notification"
	"github.com/saloonq/queue-service/internal/store"
	"github.com/saloonq/queue-service/pkg/logger"
)

// QueueSession is one customer's live view of one barber's queue. Start
// attaches both subscriptions (queue + barber status); View derives the
// sorted, annotated snapshot; Stop must be called when the view goes away or
// listeners leak across repeated visits.
//
// The view updates only through the store round-trip — Join does not mutate
// local state optimistically.
type QueueSession struct {
	svc  QueueService
	sink notification.Notifier
	l    logger.Logger
	self CustomerProfile

	mu       sync.RWMutex
	barberID string
	entries  []models.QueueEntry // sorted ascending by join time
	barber   *models.Barber
	unsubs   []store.Unsubscribe
	started  bool
}

func NewQueueSession(svc QueueService, sink notification.Notifier, l logger.Logger, self CustomerProfile) *QueueSession {
	return &QueueSession{
		svc:  svc,
		sink: sink,
		l:    l,
		self: self,
	}
}

func (s *QueueSession) Start(ctx context.Context, barberID string) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("queue session already started")
	}
	s.barberID = barberID
	s.started = true
	s.mu.Unlock()

	unsubBarber, err := s.svc.SubscribeBarber(ctx, barberID, func(b *models.Barber) {
		s.mu.Lock()
		s.barber = b
		s.mu.Unlock()
	})
	if err != nil {
		s.reset()
		return err
	}

	unsubQueue, err := s.svc.SubscribeQueue(ctx, barberID, func(q *models.Queue) {
		s.mu.Lock()
		s.entries = q.SortedEntries()
		s.mu.Unlock()
	})
	if err != nil {
		unsubBarber()
		s.reset()
		return err
	}

	s.mu.Lock()
	s.unsubs = []store.Unsubscribe{unsubBarber, unsubQueue}
	s.mu.Unlock()

	s.l.Debugf(ctx, "Queue session started: barber_id=%s phone=%s", barberID, s.self.Phone)

	return nil
}

// Join enqueues this customer with the selected services. Gated on the latest
// observed barber status and on a non-empty service selection; the store is
// never reached when a gate fails.
func (s *QueueSession) Join(ctx context.Context, services []string) error {
	s.mu.RLock()
	started := s.started
	barber := s.barber
	barberID := s.barberID
	s.mu.RUnlock()

	if !started {
		return ErrSessionNotStarted
	}

	if len(services) == 0 {
		s.sink.Notify(ctx, notification.Event{
			Message: "Please select at least one service",
			Kind:    notification.KindError,
		})
		return ErrValidation
	}

	if barber == nil || !barber.IsOpen() {
		s.sink.Notify(ctx, notification.Event{
			Message: "Queue is closed. Cannot join at this time.",
			Kind:    notification.KindError,
		})
		return ErrQueueClosed
	}

	err := s.svc.JoinQueue(ctx, barberID, models.QueueEntry{
		Name:     s.self.FullName,
		Phone:    s.self.Phone,
		Email:    s.self.Email,
		Services: services,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			s.sink.Notify(ctx, notification.Event{
				Message: "You're already in the queue",
				Kind:    notification.KindError,
			})
			return err
		}

		s.sink.Notify(ctx, notification.Event{
			Message: "Failed to join queue. Please try again.",
			Kind:    notification.KindError,
		})
		return err
	}

	s.sink.Notify(ctx, notification.Event{
		Message: "You've joined the queue!",
		Kind:    notification.KindSuccess,
	})

	return nil
}

func (s *QueueSession) Leave(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	barberID := s.barberID
	s.mu.RUnlock()

	if !started {
		return ErrSessionNotStarted
	}

	if err := s.svc.RemoveEntry(ctx, barberID, s.self.Phone); err != nil {
		s.sink.Notify(ctx, notification.Event{
			Message: "Failed to leave queue",
			Kind:    notification.KindError,
		})
		return err
	}

	s.sink.Notify(ctx, notification.Event{
		Message: "You've left the queue",
		Kind:    notification.KindSuccess,
	})

	return nil
}

// View materializes the current snapshot. Derived fields are recomputed per
// call so wait durations stay current between store updates.
func (s *QueueSession) View() QueueView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	view := QueueView{
		BarberID:     s.barberID,
		QueueLength:  len(s.entries),
		Entries:      buildEntryViews(s.entries, now),
		SelfPosition: -1,
	}

	if s.barber != nil {
		view.IsOpen = s.barber.IsOpen()
	}

	for i, e := range s.entries {
		if e.Phone == s.self.Phone {
			view.IsSelfQueued = true
			view.SelfPosition = i + 1
			break
		}
	}

	return view
}

// Stop releases both subscriptions. Results of operations still in flight are
// dropped, not delivered.
func (s *QueueSession) Stop() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.started = false
	s.entries = nil
	s.barber = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (s *QueueSession) reset() {
	s.mu.Lock()
	s.started = false
	s.barberID = ""
	s.mu.Unlock()
}
