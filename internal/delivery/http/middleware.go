package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// RequestID tags every request with an id for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, reqID)

		next.ServeHTTP(w, r)
	})
}

// requireBarber admits only requests bearing a valid barber token whose
// barber id matches the one in the path.
func (h *Handler) requireBarber(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			h.respondError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		barberID, err := h.auth.VerifyBarberToken(tokenStr)
		if err != nil {
			h.respondError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		if pathID := chi.URLParam(r, "barberId"); pathID != "" && pathID != barberID {
			h.respondError(w, http.StatusForbidden, "Token does not match barber", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
