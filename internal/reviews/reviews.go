// Package reviews serves the star-rating widget: public submissions,
// recent list with a short cache.
package reviews

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mykeysuk/handyelite/internal/cache"
	"github.com/mykeysuk/handyelite/internal/httpx"
	"github.com/mykeysuk/handyelite/internal/middleware"
	"github.com/mykeysuk/handyelite/internal/validation"
)

const listCacheKey = "reviews:recent"

type Review struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Service   string    `bson:"service" json:"service"`
	Rating    int       `bson:"rating" json:"rating"`
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type CreateRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Service string `json:"service" validate:"required,max=120"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Message string `json:"message" validate:"required,max=2000"`
}

type Handler struct {
	col      *mongo.Collection
	val      *validation.Validator
	cache    cache.Cache
	cacheTTL time.Duration
	location *time.Location
	log      *slog.Logger
}

func NewHandler(col *mongo.Collection, val *validation.Validator, c cache.Cache, cacheTTL time.Duration, location *time.Location, log *slog.Logger) *Handler {
	return &Handler{
		col:      col,
		val:      val,
		cache:    c,
		cacheTTL: cacheTTL,
		location: location,
		log:      log,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.cache != nil {
		if cached, ok, err := h.cache.Get(ctx, listCacheKey); err == nil && ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(100)
	cursor, err := h.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Error("reviews list: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]Review, 0)
	for cursor.Next(ctx) {
		var review Review
		if err := cursor.Decode(&review); err != nil {
			log.Error("reviews list: decode error", slog.String("error", err.Error()))
			httpx.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, review)
	}
	if err := cursor.Err(); err != nil {
		log.Error("reviews list: cursor error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	payload := map[string]interface{}{"reviews": items}
	if h.cache != nil {
		if raw, err := json.Marshal(payload); err == nil {
			_ = h.cache.Set(ctx, listCacheKey, raw, h.cacheTTL)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("reviews create: invalid json")
		httpx.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Message = strings.TrimSpace(req.Message)
	if err := h.val.Struct(req); err != nil {
		log.Warn("reviews create: validation error")
		httpx.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	review := Review{
		ID:        primitive.NewObjectID().Hex(),
		Name:      req.Name,
		Service:   strings.TrimSpace(req.Service),
		Rating:    req.Rating,
		Message:   req.Message,
		CreatedAt: time.Now().In(h.location),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.col.InsertOne(ctx, review); err != nil {
		log.Error("reviews create: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if h.cache != nil {
		_ = h.cache.Delete(r.Context(), listCacheKey)
	}

	log.Info("reviews create: ok", slog.String("review_id", review.ID), slog.Int("rating", review.Rating))
	httpx.WriteJSON(w, http.StatusCreated, review)
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
