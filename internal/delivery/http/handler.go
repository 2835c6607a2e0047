package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/saloonq/queue-service/internal/auth"
	"github.com/saloonq/queue-service/internal/models"
	"github.com/saloonq/queue-service/internal/service"
	"github.com/saloonq/queue-service/pkg/logger"
	"github.com/saloonq/queue-service/pkg/util"
)

type Handler struct {
	svc       service.QueueService
	auth      *auth.Manager
	l         logger.Logger
	validator *validator.Validate
}

func NewHandler(svc service.QueueService, authMgr *auth.Manager, l logger.Logger) *Handler {
	return &Handler{
		svc:       svc,
		auth:      authMgr,
		l:         l,
		validator: validator.New(),
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/queues/{barberId}", h.GetQueue)
		r.Post("/queues/{barberId}/join", h.JoinQueue)
		r.Delete("/queues/{barberId}/entries/{phone}", h.LeaveQueue)

		r.Group(func(r chi.Router) {
			r.Use(h.requireBarber)
			r.Post("/barbers/{barberId}/open", h.OpenQueue)
			r.Post("/barbers/{barberId}/close", h.CloseQueue)
			r.Get("/barbers/{barberId}/queue", h.GetBarberQueue)
			r.Post("/queues/{barberId}/walk-ins", h.AddWalkIn)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "saloonq-queue-service",
	})
}

type joinQueueRequest struct {
	Name     string   `json:"name" validate:"required"`
	Phone    string   `json:"phone" validate:"required"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Services []string `json:"services" validate:"required,min=1,dive,required"`
}

type walkInRequest struct {
	Name     string   `json:"name" validate:"required"`
	Phone    string   `json:"phone" validate:"required"`
	Services []string `json:"services" validate:"omitempty,dive,required"`
}

// JoinQueue handles a customer joining a barber's queue. The open/closed gate
// lives here, with the caller, not inside the queue service.
func (h *Handler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	barberID := chi.URLParam(r, "barberId")

	var req joinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	barber, err := h.svc.GetBarber(r.Context(), barberID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to join queue")
		return
	}

	if !barber.IsOpen() {
		h.respondError(w, http.StatusForbidden, "Queue is closed. Cannot join at this time.", service.ErrQueueClosed)
		return
	}

	err = h.svc.JoinQueue(r.Context(), barberID, models.QueueEntry{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Services: req.Services,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to join queue")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "You've joined the queue!",
	})
}

// AddWalkIn handles the barber inserting a customer directly.
func (h *Handler) AddWalkIn(w http.ResponseWriter, r *http.Request) {
	barberID := chi.URLParam(r, "barberId")

	var req walkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Customer name and phone number are required.", err)
		return
	}

	err := h.svc.AddWalkIn(r.Context(), barberID, models.QueueEntry{
		Name:     req.Name,
		Phone:    req.Phone,
		Services: req.Services,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to add customer")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Customer has been added to the queue.",
	})
}

func (h *Handler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	barberID := chi.URLParam(r, "barberId")
	phone := chi.URLParam(r, "phone")
	if phone == "" {
		h.respondError(w, http.StatusBadRequest, "Phone is required", nil)
		return
	}

	if err := h.svc.RemoveEntry(r.Context(), barberID, phone); err != nil {
		h.respondServiceError(w, r, err, "Failed to leave queue")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "You've left the queue",
	})
}

// GetQueue returns the customer-facing snapshot: sorted entries with derived
// positions and wait times, phones masked. The optional phone query parameter
// adds the caller's own position.
func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	barberID := chi.URLParam(r, "barberId")

	view, err := h.buildView(r, barberID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to get queue")
		return
	}

	for i := range view.Entries {
		view.Entries[i].Phone = util.MaskPhone(view.Entries[i].Phone)
	}

	h.respondJSON(w, http.StatusOK, view)
}

// GetBarberQueue is the barber's own snapshot, phones unmasked.
func (h *Handler) GetBarberQueue(w http.ResponseWriter, r *http.Request) {
	barberID := chi.URLParam(r, "barberId")

	view, err := h.buildView(r, barberID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to get queue")
		return
	}

	h.respondJSON(w, http.StatusOK, view)
}

func (h *Handler) OpenQueue(w http.ResponseWriter, r *http.Request) {
	barberID := chi.URLParam(r, "barberId")

	if err := h.svc.OpenQueue(r.Context(), barberID); err != nil {
		h.respondServiceError(w, r, err, "Failed to start queue")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Queue is now open",
	})
}

func (h *Handler) CloseQueue(w http.ResponseWriter, r *http.Request) {
	barberID := chi.URLParam(r, "barberId")

	if err := h.svc.CloseQueue(r.Context(), barberID); err != nil {
		h.respondServiceError(w, r, err, "Failed to stop queue")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Queue is now closed",
	})
}

func (h *Handler) buildView(r *http.Request, barberID string) (*service.QueueView, error) {
	barber, err := h.svc.GetBarber(r.Context(), barberID)
	if err != nil {
		return nil, err
	}

	q, err := h.svc.GetQueue(r.Context(), barberID)
	if err != nil {
		if !errors.Is(err, service.ErrQueueNotFound) {
			return nil, err
		}
		// No queue document yet reads as an empty queue.
		q = &models.Queue{BarberID: barberID, Customers: []models.QueueEntry{}}
	}

	sorted := q.SortedEntries()
	now := time.Now()

	view := &service.QueueView{
		BarberID:     barberID,
		IsOpen:       barber.IsOpen(),
		QueueLength:  len(sorted),
		SelfPosition: -1,
	}

	for i, e := range sorted {
		ev := service.EntryView{
			Name:          e.Name,
			Phone:         e.Phone,
			Services:      e.Services,
			Position:      i + 1,
			JoinedAt:      e.JoinedAt,
			Waited:        util.FormatWait(e.JoinedAt, now),
			JoinedDisplay: util.FormatJoinedAt(e.JoinedAt, now),
		}
		view.Entries = append(view.Entries, ev)
	}

	if phone := r.URL.Query().Get("phone"); phone != "" {
		view.SelfPosition = q.PositionOf(phone)
		view.IsSelfQueued = view.SelfPosition > 0
	}

	return view, nil
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrDuplicateEntry):
		h.respondError(w, http.StatusConflict, "This phone number is already in the queue.", err)
	case errors.Is(err, service.ErrBarberNotFound):
		h.respondError(w, http.StatusNotFound, "Barber not found", err)
	case errors.Is(err, service.ErrQueueNotFound):
		h.respondError(w, http.StatusNotFound, "Queue not found", err)
	case errors.Is(err, service.ErrValidation):
		h.respondError(w, http.StatusBadRequest, "Missing required fields", err)
	case errors.Is(err, models.ErrDecode):
		h.respondError(w, http.StatusInternalServerError, "Queue data is malformed", err)
	case errors.Is(err, service.ErrStoreUnavailable):
		h.respondError(w, http.StatusServiceUnavailable, "Service temporarily unavailable", err)
	default:
		h.l.Errorf(r.Context(), "delivery.http.Handler: %v", err)
		h.respondError(w, http.StatusInternalServerError, fallback, err)
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.l.Errorf(context.Background(), "delivery.http.Handler: failed to encode JSON response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error": message,
		"code":  statusCode,
	}

	h.respondJSON(w, statusCode, response)
}
