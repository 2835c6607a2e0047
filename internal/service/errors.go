package service

import "errors"

var (
	ErrDuplicateEntry   = errors.New("customer already in queue")
	ErrBarberNotFound   = errors.New("barber not found")
	ErrQueueNotFound    = errors.New("queue not found")
	ErrQueueClosed      = errors.New("queue is closed")
	ErrValidation       = errors.New("missing required fields")
	ErrStoreUnavailable = errors.New("queue store unavailable")

	ErrSessionNotStarted = errors.New("session not started")
)
