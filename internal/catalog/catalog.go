// Package catalog serves the service catalog the booking form and the
// services section of the site are populated from.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mykeysuk/handyelite/internal/cache"
	"github.com/mykeysuk/handyelite/internal/httpx"
	"github.com/mykeysuk/handyelite/internal/middleware"
)

const listCacheKey = "catalog:services"

type Service struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Category    string    `bson:"category" json:"category"`
	Slug        string    `bson:"slug" json:"slug"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
var multiDash = regexp.MustCompile(`-+`)

func Slugify(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.ReplaceAll(s, " ", "-")
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}

type Handler struct {
	col      *mongo.Collection
	cache    cache.Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewHandler(col *mongo.Collection, c cache.Cache, cacheTTL time.Duration, log *slog.Logger) *Handler {
	return &Handler{
		col:      col,
		cache:    c,
		cacheTTL: cacheTTL,
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

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := h.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Error("catalog list: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]Service, 0)
	for cursor.Next(ctx) {
		var svc Service
		if err := cursor.Decode(&svc); err != nil {
			log.Error("catalog list: decode error", slog.String("error", err.Error()))
			httpx.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, svc)
	}
	if err := cursor.Err(); err != nil {
		log.Error("catalog list: cursor error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	payload := map[string]interface{}{"services": items}
	if h.cache != nil {
		if raw, err := json.Marshal(payload); err == nil {
			_ = h.cache.Set(ctx, listCacheKey, raw, h.cacheTTL)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, payload)
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
