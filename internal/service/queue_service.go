package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saloonq/queue-service/internal/kafka"
	"github.com/saloonq/queue-service/internal/models"
	"github.com/saloonq/queue-service/internal/store"
	"github.com/saloonq/queue-service/pkg/logger"
)

const (
	collBarber = "barber"
	collQueue  = "queue"

	// WalkInMarker prefixes the stored name of barber-added entries so the
	// queue views can tell walk-ins from self-joined customers.
	WalkInMarker = "💈"
)

// QueueService owns the queue mutation protocol: every read and write of a
// barber's queue document goes through here, inside a store transaction, so
// the duplicate-phone invariant holds across concurrent writers.
//
// Barber status is deliberately NOT re-checked inside JoinQueue; the open/
// closed gate lives with the caller, matching the deployed clients. A status
// flip racing a join can land an entry in a closed queue.
type QueueService interface {
	OpenQueue(ctx context.Context, barberID string) error
	CloseQueue(ctx context.Context, barberID string) error
	JoinQueue(ctx context.Context, barberID string, entry models.QueueEntry) error
	AddWalkIn(ctx context.Context, barberID string, entry models.QueueEntry) error
	RemoveEntry(ctx context.Context, barberID, phone string) error
	GetQueue(ctx context.Context, barberID string) (*models.Queue, error)
	GetBarber(ctx context.Context, barberID string) (*models.Barber, error)
	SubscribeQueue(ctx context.Context, barberID string, onChange func(*models.Queue)) (store.Unsubscribe, error)
	SubscribeBarber(ctx context.Context, barberID string, onChange func(*models.Barber)) (store.Unsubscribe, error)
}

type queueService struct {
	st   store.Store
	prod kafka.Producer
	l    logger.Logger
}

func NewQueueService(st store.Store, prod kafka.Producer, l logger.Logger) QueueService {
	return &queueService{
		st:   st,
		prod: prod,
		l:    l,
	}
}

func (s *queueService) OpenQueue(ctx context.Context, barberID string) error {
	if err := s.setStatus(ctx, barberID, models.BarberStatusOpen); err != nil {
		return err
	}

	// Ensure the queue document exists without touching existing entries.
	err := s.st.RunTransaction(ctx, collQueue, barberID, func(doc store.Document, exists bool) (store.Document, error) {
		if exists {
			return nil, nil
		}

		return models.EncodeQueue(&models.Queue{
			BarberID:  barberID,
			CreatedAt: time.Now().UTC(),
			Customers: []models.QueueEntry{},
		})
	})
	if err != nil {
		s.l.Errorf(ctx, "service.queueService.OpenQueue: %v", err)
		return s.storeErr(err)
	}

	if s.prod != nil {
		if err := s.prod.PublishQueueOpened(ctx, kafka.QueueOpenedEvent{
			BarberID: barberID,
		}); err != nil {
			// Log error but don't fail the request
			s.l.Errorf(ctx, "service.queueService.OpenQueue: publish: %v", err)
		}
	}

	s.l.Infof(ctx, "Queue opened: barber_id=%s", barberID)

	return nil
}

func (s *queueService) CloseQueue(ctx context.Context, barberID string) error {
	// Closing never clears entries; the list survives close/reopen cycles.
	if err := s.setStatus(ctx, barberID, models.BarberStatusClosed); err != nil {
		return err
	}

	if s.prod != nil {
		if err := s.prod.PublishQueueClosed(ctx, kafka.QueueClosedEvent{
			BarberID: barberID,
		}); err != nil {
			s.l.Errorf(ctx, "service.queueService.CloseQueue: publish: %v", err)
		}
	}

	s.l.Infof(ctx, "Queue closed: barber_id=%s", barberID)

	return nil
}

func (s *queueService) JoinQueue(ctx context.Context, barberID string, entry models.QueueEntry) error {
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now().UTC()
	}

	pos, err := s.appendEntry(ctx, barberID, entry)
	if err != nil {
		return err
	}

	if s.prod != nil {
		if err := s.prod.PublishQueueJoined(ctx, kafka.QueueJoinedEvent{
			BarberID: barberID,
			Phone:    entry.Phone,
			Name:     entry.Name,
			Position: pos,
			Services: entry.Services,
			JoinedAt: entry.JoinedAt,
		}); err != nil {
			s.l.Errorf(ctx, "service.queueService.JoinQueue: publish: %v", err)
		}
	}

	s.l.Infof(ctx, "Customer joined queue: barber_id=%s phone=%s position=%d", barberID, entry.Phone, pos)

	return nil
}

func (s *queueService) AddWalkIn(ctx context.Context, barberID string, entry models.QueueEntry) error {
	entry.Name = WalkInMarker + strings.TrimSpace(entry.Name)
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now().UTC()
	}

	pos, err := s.appendEntry(ctx, barberID, entry)
	if err != nil {
		return err
	}

	if s.prod != nil {
		if err := s.prod.PublishWalkInAdded(ctx, kafka.WalkInAddedEvent{
			BarberID: barberID,
			Phone:    entry.Phone,
			Name:     entry.Name,
			Position: pos,
		}); err != nil {
			s.l.Errorf(ctx, "service.queueService.AddWalkIn: publish: %v", err)
		}
	}

	s.l.Infof(ctx, "Walk-in added: barber_id=%s phone=%s position=%d", barberID, entry.Phone, pos)

	return nil
}

// appendEntry runs the one correctness-critical transaction: read the entry
// list, reject a duplicate phone, append, write the full list back. Two
// concurrent appends are serialized by the store; the loser's fn re-runs
// against the winner's list, so a racing duplicate is always observed.
func (s *queueService) appendEntry(ctx context.Context, barberID string, entry models.QueueEntry) (int, error) {
	if entry.Phone == "" || entry.Name == "" {
		return 0, fmt.Errorf("%w: name and phone", ErrValidation)
	}
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now().UTC()
	}

	pos := 0
	err := s.st.RunTransaction(ctx, collQueue, barberID, func(doc store.Document, exists bool) (store.Document, error) {
		q := &models.Queue{
			BarberID:  barberID,
			CreatedAt: entry.JoinedAt,
			Customers: []models.QueueEntry{},
		}

		if exists {
			var err error
			if q, err = models.DecodeQueue(barberID, doc); err != nil {
				return nil, err
			}
		}

		if q.HasPhone(entry.Phone) {
			return nil, ErrDuplicateEntry
		}

		q.Customers = append(q.Customers, entry)
		pos = q.PositionOf(entry.Phone)

		return models.EncodeQueue(q)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			s.l.Warnf(ctx, "service.queueService.appendEntry: %v: barber_id=%s phone=%s", err, barberID, entry.Phone)
			return 0, err
		}

		s.l.Errorf(ctx, "service.queueService.appendEntry: %v", err)
		return 0, s.storeErr(err)
	}

	return pos, nil
}

func (s *queueService) RemoveEntry(ctx context.Context, barberID, phone string) error {
	if phone == "" {
		return fmt.Errorf("%w: phone", ErrValidation)
	}

	removed := false
	var leftAt time.Time
	err := s.st.RunTransaction(ctx, collQueue, barberID, func(doc store.Document, exists bool) (store.Document, error) {
		if !exists {
			// No queue yet; removal is a no-op success.
			return nil, nil
		}

		q, err := models.DecodeQueue(barberID, doc)
		if err != nil {
			return nil, err
		}

		for _, e := range q.Customers {
			if e.Phone == phone {
				leftAt = e.JoinedAt
			}
		}

		if removed = q.RemovePhone(phone); !removed {
			return nil, nil
		}

		return models.EncodeQueue(q)
	})
	if err != nil {
		s.l.Errorf(ctx, "service.queueService.RemoveEntry: %v", err)
		return s.storeErr(err)
	}

	if removed {
		if s.prod != nil {
			if err := s.prod.PublishQueueLeft(ctx, kafka.QueueLeftEvent{
				BarberID: barberID,
				Phone:    phone,
				Reason:   kafka.ReasonCustomerLeft,
				LeftAt:   leftAt,
			}); err != nil {
				s.l.Errorf(ctx, "service.queueService.RemoveEntry: publish: %v", err)
			}
		}

		s.l.Infof(ctx, "Entry removed: barber_id=%s phone=%s", barberID, phone)
	}

	return nil
}

func (s *queueService) GetQueue(ctx context.Context, barberID string) (*models.Queue, error) {
	doc, err := s.st.Get(ctx, collQueue, barberID)
	if err != nil {
		if errors.Is(err, store.ErrDocNotFound) {
			return nil, ErrQueueNotFound
		}

		s.l.Errorf(ctx, "service.queueService.GetQueue: %v", err)
		return nil, s.storeErr(err)
	}

	return models.DecodeQueue(barberID, doc)
}

func (s *queueService) GetBarber(ctx context.Context, barberID string) (*models.Barber, error) {
	doc, err := s.st.Get(ctx, collBarber, barberID)
	if err != nil {
		if errors.Is(err, store.ErrDocNotFound) {
			return nil, ErrBarberNotFound
		}

		s.l.Errorf(ctx, "service.queueService.GetBarber: %v", err)
		return nil, s.storeErr(err)
	}

	return models.DecodeBarber(barberID, doc)
}

func (s *queueService) SubscribeQueue(ctx context.Context, barberID string, onChange func(*models.Queue)) (store.Unsubscribe, error) {
	return s.st.Subscribe(ctx, collQueue, barberID, func(doc store.Document) {
		q, err := models.DecodeQueue(barberID, doc)
		if err != nil {
			s.l.Errorf(ctx, "service.queueService.SubscribeQueue: dropping snapshot: %v", err)
			return
		}

		onChange(q)
	})
}

func (s *queueService) SubscribeBarber(ctx context.Context, barberID string, onChange func(*models.Barber)) (store.Unsubscribe, error) {
	return s.st.Subscribe(ctx, collBarber, barberID, func(doc store.Document) {
		b, err := models.DecodeBarber(barberID, doc)
		if err != nil {
			s.l.Errorf(ctx, "service.queueService.SubscribeBarber: dropping snapshot: %v", err)
			return
		}

		onChange(b)
	})
}

func (s *queueService) setStatus(ctx context.Context, barberID string, status models.BarberStatus) error {
	err := s.st.Update(ctx, collBarber, barberID, store.Document{"status": string(status)})
	if err != nil {
		if errors.Is(err, store.ErrDocNotFound) {
			return ErrBarberNotFound
		}

		s.l.Errorf(ctx, "service.queueService.setStatus: %v", err)
		return s.storeErr(err)
	}

	return nil
}

// storeErr folds transport-level store failures into the error taxonomy while
// letting typed errors (decode, not-found) through untouched.
func (s *queueService) storeErr(err error) error {
	if errors.Is(err, models.ErrDecode) || errors.Is(err, store.ErrDocNotFound) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
