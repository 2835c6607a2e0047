package service

import (
	"time"

	"github.com/saloonq/queue-service/internal/models"
	"github.com/saloonq/queue-service/pkg/util"
)

// CustomerProfile identifies the customer behind a QueueSession. Phone doubles
// as the customer's queue-entry key.
type CustomerProfile struct {
	FullName string
	Phone    string
	Email    string
}

// EntryView is one queue entry with its derived display fields.
type EntryView struct {
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Services      []string  `json:"services,omitempty"`
	Position      int       `json:"position"`
	JoinedAt      time.Time `json:"joined_at"`
	Waited        string    `json:"waited"`
	JoinedDisplay string    `json:"joined_display"`
}

// QueueView is one materialized snapshot of a barber's queue, already sorted
// and annotated for rendering.
type QueueView struct {
	BarberID     string      `json:"barber_id"`
	IsOpen       bool        `json:"is_open"`
	QueueLength  int         `json:"queue_length"`
	Entries      []EntryView `json:"entries"`
	IsSelfQueued bool        `json:"is_self_queued"`
	SelfPosition int         `json:"self_position"`
}

func buildEntryViews(entries []models.QueueEntry, now time.Time) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for i, e := range entries {
		out = append(out, EntryView{
			Name:          e.Name,
			Phone:         e.Phone,
			Services:      e.Services,
			Position:      i + 1,
			JoinedAt:      e.JoinedAt,
			Waited:        util.FormatWait(e.JoinedAt, now),
			JoinedDisplay: util.FormatJoinedAt(e.JoinedAt, now),
		})
	}
	return out
}
