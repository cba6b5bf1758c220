// Package contact handles the site contact form: messages are stored
// and forwarded to the operator inbox best-effort.
package contact

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mykeysuk/handyelite/internal/httpx"
	"github.com/mykeysuk/handyelite/internal/middleware"
	"github.com/mykeysuk/handyelite/internal/validation"
)

type Message struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	FirstName string    `bson:"firstName" json:"firstName"`
	LastName  string    `bson:"lastName" json:"lastName"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone" json:"phone"`
	Service   string    `bson:"service,omitempty" json:"service,omitempty"`
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type CreateRequest struct {
	FirstName string `json:"firstName" validate:"required,max=80"`
	LastName  string `json:"lastName" validate:"required,max=80"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Service   string `json:"service" validate:"max=120"`
	Message   string `json:"message" validate:"required,max=4000"`
}

type Notifier interface {
	SendContactMessage(ctx context.Context, name, email, phone, service, message string) (string, error)
}

type Handler struct {
	col      *mongo.Collection
	val      *validation.Validator
	notifier Notifier
	location *time.Location
	log      *slog.Logger
}

func NewHandler(col *mongo.Collection, val *validation.Validator, notifier Notifier, location *time.Location, log *slog.Logger) *Handler {
	return &Handler{
		col:      col,
		val:      val,
		notifier: notifier,
		location: location,
		log:      log,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("contact create: invalid json")
		httpx.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if err := h.val.Struct(req); err != nil {
		log.Warn("contact create: validation error")
		httpx.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	msg := Message{
		ID:        primitive.NewObjectID().Hex(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Service:   strings.TrimSpace(req.Service),
		Message:   req.Message,
		CreatedAt: time.Now().In(h.location),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.col.InsertOne(ctx, msg); err != nil {
		log.Error("contact create: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if h.notifier != nil {
		go h.forwardToOperator(msg)
	}

	log.Info("contact create: stored", slog.String("contact_id", msg.ID))
	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "message received",
		"id":      msg.ID,
	})
}

func (h *Handler) forwardToOperator(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	name := strings.TrimSpace(msg.FirstName + " " + msg.LastName)
	if _, err := h.notifier.SendContactMessage(ctx, name, msg.Email, msg.Phone, msg.Service, msg.Message); err != nil {
		h.log.Warn("contact email: send failed",
			slog.String("contact_id", msg.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	h.log.Info("contact email: sent", slog.String("contact_id", msg.ID))
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
