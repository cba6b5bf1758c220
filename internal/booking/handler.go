package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mykeysuk/handyelite/internal/httpx"
	"github.com/mykeysuk/handyelite/internal/middleware"
	"github.com/mykeysuk/handyelite/internal/validation"
)

type Handler struct {
	service *Service
	broker  *Broker
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, broker *Broker, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		broker:  broker,
		val:     val,
		log:     log,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.Warn("booking create: no identity")
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("booking create: invalid json")
		httpx.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	req.Service = strings.TrimSpace(req.Service)
	req.ServiceDescription = strings.TrimSpace(req.ServiceDescription)
	if err := h.val.Struct(req); err != nil {
		log.Warn("booking create: validation error")
		httpx.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	b, err := h.service.Create(ctx, ident.UID, req)
	if err != nil {
		log.Error("booking create: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "booking received",
		"booking": b,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, ident.UID)
	if err != nil {
		log.Error("booking list: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": items,
		"latest":   latestStatus(items),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	b, err := h.service.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "booking not found", nil)
			return
		}
		log.Error("booking get: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if b.UserID != ident.UID {
		// Not yours: indistinguishable from absent.
		httpx.WriteError(w, http.StatusNotFound, "booking not found", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.History(ctx, ident.UID)
	if err != nil {
		log.Error("booking history: mirror error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "history unavailable", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"bookings": items})
}

func (h *Handler) ToggleHistory(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	completed, err := h.service.ToggleMirror(ctx, ident.UID, id)
	if err != nil {
		if errors.Is(err, ErrMirrorNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "history entry not found", nil)
			return
		}
		log.Error("history toggle: mirror error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "history unavailable", nil)
		return
	}

	log.Info("history toggle: ok", slog.String("booking_id", id), slog.Bool("completed", completed))
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookingId": id,
		"status":    completed,
	})
}

// Stream is the live bookings view: an SSE feed of the owner's full
// list, re-sent after every change. The subscription is torn down when
// the client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	sub, err := h.broker.Subscribe(r.Context(), ident.UID)
	if err != nil {
		log.Error("booking stream: subscribe failed", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "stream unavailable", nil)
		return
	}
	defer sub.Cancel()

	setSSEHeaders(w)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case list, ok := <-sub.C:
			if !ok {
				return
			}
			payload := map[string]interface{}{
				"bookings": list,
				"latest":   latestStatus(list),
			}
			if !writeSSE(w, flusher, payload) {
				return
			}
		}
	}
}

// StreamHistory is the mirror-store counterpart of Stream, active only
// while the history view is open on the client.
func (h *Handler) StreamHistory(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	sub, err := h.broker.SubscribeHistory(r.Context(), ident.UID)
	if err != nil {
		log.Error("history stream: subscribe failed", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "stream unavailable", nil)
		return
	}
	defer sub.Cancel()

	setSSEHeaders(w)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case list, ok := <-sub.C:
			if !ok {
				return
			}
			if !writeSSE(w, flusher, map[string]interface{}{"bookings": list}) {
				return
			}
		}
	}
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{UserID: strings.TrimSpace(r.URL.Query().Get("userId"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"status": "oneof"})
			return
		}
		filter.Status = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.ListAdmin(ctx, filter, limit, offset)
	if err != nil {
		log.Error("admin booking list: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) AdminToggleStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, err := h.service.ToggleStatus(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin booking toggle: not found", slog.String("booking_id", id))
			httpx.WriteError(w, http.StatusNotFound, "booking not found", nil)
			return
		}
		log.Error("admin booking toggle: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin booking toggle: ok", slog.String("booking_id", id), slog.String("status", string(status)))
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"bookingId": id,
		"status":    status,
	})
}

// latestStatus is the one-line summary the site header shows, derived
// from the newest booking.
func latestStatus(items []Booking) string {
	if len(items) == 0 {
		return ""
	}
	return string(items[0].Status)
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, payload interface{}) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	if _, err := w.Write([]byte("data: " + string(raw) + "\n\n")); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
