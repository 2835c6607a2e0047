package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type BarberStatus string

const (
	BarberStatusOpen   BarberStatus = "open"
	BarberStatusClosed BarberStatus = "closed"
)

// Barber is one barber's profile document (collection "barber", keyed by the
// auth-issued barber id). Owned by the barber client; read-only to customers.
type Barber struct {
	ID          string       `json:"-"`
	FullName    string       `json:"fullName"`
	StoreName   string       `json:"storeName"`
	ServicesPro []string     `json:"servicesPro"`
	Status      BarberStatus `json:"status"`
	Phone       string       `json:"phone"`
	Email       string       `json:"email"`
}

func (b *Barber) IsOpen() bool {
	return b.Status == BarberStatusOpen
}

// DecodeBarber validates a raw barber document. Status is normalized to lower
// case; a missing status reads as closed, which matches how every client in
// the field treats it. Any other status value is malformed.
func DecodeBarber(id string, doc map[string]any) (*Barber, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var b Barber
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b.ID = id

	switch BarberStatus(strings.ToLower(string(b.Status))) {
	case BarberStatusOpen:
		b.Status = BarberStatusOpen
	case BarberStatusClosed, "":
		b.Status = BarberStatusClosed
	default:
		return nil, fmt.Errorf("%w: unknown barber status %q", ErrDecode, b.Status)
	}

	return &b, nil
}
