package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/saloonq/queue-service/internal/cache"
	"github.com/saloonq/queue-service/internal/models"
	"github.com/saloonq/queue-service/internal/notification"
	"github.com/saloonq/queue-service/internal/store"
	"github.com/saloonq/queue-service/pkg/logger"
)

// BarberSession is the barber's control surface over their own queue: live
// status and queue length, open/close, walk-in adds and removals. The cached
// profile, when present, seeds the view before the first store snapshot.
type BarberSession struct {
	svc   QueueService
	sink  notification.Notifier
	cache *cache.ProfileCache // optional
	l     logger.Logger

	mu       sync.RWMutex
	barberID string
	barber   *models.Barber
	entries  []models.QueueEntry
	unsubs   []store.Unsubscribe
	started  bool
}

func NewBarberSession(svc QueueService, sink notification.Notifier, profileCache *cache.ProfileCache, l logger.Logger) *BarberSession {
	return &BarberSession{
		svc:   svc,
		sink:  sink,
		cache: profileCache,
		l:     l,
	}
}

func (s *BarberSession) Start(ctx context.Context, barberID string) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("barber session already started")
	}
	s.barberID = barberID
	s.started = true

	if s.cache != nil {
		if cached, err := s.cache.LoadBarber(); err == nil && cached != nil && cached.ID == barberID {
			s.barber = cached
		}
	}
	s.mu.Unlock()

	unsubBarber, err := s.svc.SubscribeBarber(ctx, barberID, func(b *models.Barber) {
		s.mu.Lock()
		s.barber = b
		s.mu.Unlock()

		if s.cache != nil {
			if err := s.cache.SaveBarber(b); err != nil {
				s.l.Warnf(ctx, "service.BarberSession: failed to cache profile: %v", err)
			}
		}
	})
	if err != nil {
		s.resetLocked()
		return err
	}

	unsubQueue, err := s.svc.SubscribeQueue(ctx, barberID, func(q *models.Queue) {
		s.mu.Lock()
		s.entries = q.SortedEntries()
		s.mu.Unlock()
	})
	if err != nil {
		unsubBarber()
		s.resetLocked()
		return err
	}

	s.mu.Lock()
	s.unsubs = []store.Unsubscribe{unsubBarber, unsubQueue}
	s.mu.Unlock()

	s.l.Debugf(ctx, "Barber session started: barber_id=%s", barberID)

	return nil
}

func (s *BarberSession) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.barber != nil && s.barber.IsOpen()
}

func (s *BarberSession) QueueLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// View materializes the barber's own queue snapshot, walk-in markers intact.
func (s *BarberSession) View() QueueView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := QueueView{
		BarberID:     s.barberID,
		QueueLength:  len(s.entries),
		Entries:      buildEntryViews(s.entries, time.Now()),
		SelfPosition: -1,
	}
	if s.barber != nil {
		view.IsOpen = s.barber.IsOpen()
	}

	return view
}

func (s *BarberSession) Open(ctx context.Context) error {
	barberID, err := s.requireStarted()
	if err != nil {
		return err
	}

	if err := s.svc.OpenQueue(ctx, barberID); err != nil {
		s.sink.Notify(ctx, notification.Event{
			Message: "Failed to start queue. Please try again.",
			Kind:    notification.KindError,
		})
		return err
	}

	s.sink.Notify(ctx, notification.Event{
		Message: "Queue is now open",
		Kind:    notification.KindSuccess,
	})

	return nil
}

func (s *BarberSession) Close(ctx context.Context) error {
	barberID, err := s.requireStarted()
	if err != nil {
		return err
	}

	if err := s.svc.CloseQueue(ctx, barberID); err != nil {
		s.sink.Notify(ctx, notification.Event{
			Message: "Failed to stop queue. Please try again.",
			Kind:    notification.KindError,
		})
		return err
	}

	s.sink.Notify(ctx, notification.Event{
		Message: "Queue is now closed",
		Kind:    notification.KindSuccess,
	})

	return nil
}

// AddWalkIn inserts a customer on the barber's behalf. Name and phone are
// validated here, before any store call; a duplicate phone is surfaced as its
// own condition, distinct from generic failure.
func (s *BarberSession) AddWalkIn(ctx context.Context, name, phone string, services []string) error {
	barberID, err := s.requireStarted()
	if err != nil {
		return err
	}

	if strings.TrimSpace(name) == "" || strings.TrimSpace(phone) == "" {
		s.sink.Notify(ctx, notification.Event{
			Message: "Customer name and phone number are required.",
			Kind:    notification.KindError,
		})
		return ErrValidation
	}

	err = s.svc.AddWalkIn(ctx, barberID, models.QueueEntry{
		Name:     strings.TrimSpace(name),
		Phone:    strings.TrimSpace(phone),
		Services: services,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			s.sink.Notify(ctx, notification.Event{
				Message: "This phone number is already in the queue.",
				Kind:    notification.KindWarning,
			})
			return err
		}

		s.sink.Notify(ctx, notification.Event{
			Message: "Failed to add customer. Please try again.",
			Kind:    notification.KindError,
		})
		return err
	}

	s.sink.Notify(ctx, notification.Event{
		Message: "Customer has been added to the queue.",
		Kind:    notification.KindSuccess,
	})

	return nil
}

func (s *BarberSession) RemoveEntry(ctx context.Context, phone string) error {
	barberID, err := s.requireStarted()
	if err != nil {
		return err
	}

	return s.svc.RemoveEntry(ctx, barberID, phone)
}

func (s *BarberSession) Stop() {
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

func (s *BarberSession) requireStarted() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", ErrSessionNotStarted
	}
	return s.barberID, nil
}

func (s *BarberSession) resetLocked() {
	s.mu.Lock()
	s.started = false
	s.barberID = ""
	s.mu.Unlock()
}
