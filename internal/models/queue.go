package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrDecode marks a store document that does not decode into a valid model.
// Defaulting of optional fields happens here and nowhere else; callers see
// either a validated value or this error.
var ErrDecode = errors.New("malformed document")

// QueueEntry is one waiting customer. Phone is the entry's primary key within
// a queue; JoinedAt orders the queue and drives the wait-time display.
type QueueEntry struct {
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Email    string    `json:"email,omitempty"`
	Services []string  `json:"services,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Queue is one barber's waiting line (collection "queue", keyed by barber id).
// Customers is stored in insertion order; rendered order is always derived by
// sorting on JoinedAt, never trusted from the wire.
type Queue struct {
	BarberID  string       `json:"barberId"`
	CreatedAt time.Time    `json:"createdAt"`
	Customers []QueueEntry `json:"customers"`
}

// DecodeQueue validates a raw queue document. A missing customers field reads
// as an empty queue; an entry without a phone or a parseable joinedAt is
// malformed rather than silently defaulted.
func DecodeQueue(barberID string, doc map[string]any) (*Queue, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var q Queue
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if q.BarberID == "" {
		q.BarberID = barberID
	}
	if q.Customers == nil {
		q.Customers = []QueueEntry{}
	}

	for i, e := range q.Customers {
		if e.Phone == "" {
			return nil, fmt.Errorf("%w: entry %d has no phone", ErrDecode, i)
		}
		if e.JoinedAt.IsZero() {
			return nil, fmt.Errorf("%w: entry %s has no joinedAt", ErrDecode, e.Phone)
		}
	}

	return &q, nil
}

// EncodeQueue renders the queue back into its wire document.
func EncodeQueue(q *Queue) (map[string]any, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode queue: %w", err)
	}

	return doc, nil
}

// SortedEntries returns the entries ascending by join time. The sort is
// stable so same-instant entries keep their stored order.
func (q *Queue) SortedEntries() []QueueEntry {
	out := make([]QueueEntry, len(q.Customers))
	copy(out, q.Customers)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})

	return out
}

func (q *Queue) HasPhone(phone string) bool {
	for _, e := range q.Customers {
		if e.Phone == phone {
			return true
		}
	}
	return false
}

// PositionOf returns the 1-based position of phone in the sorted view, or -1
// when absent.
func (q *Queue) PositionOf(phone string) int {
	for i, e := range q.SortedEntries() {
		if e.Phone == phone {
			return i + 1
		}
	}
	return -1
}

// RemovePhone filters out the entry with the given phone. Returns whether an
// entry was removed; removing an absent phone is a no-op.
func (q *Queue) RemovePhone(phone string) bool {
	kept := q.Customers[:0]
	removed := false
	for _, e := range q.Customers {
		if e.Phone == phone {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	q.Customers = kept
	return removed
}

func (q *Queue) Len() int {
	return len(q.Customers)
}
