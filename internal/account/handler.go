package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mykeysuk/handyelite/internal/httpx"
	"github.com/mykeysuk/handyelite/internal/middleware"
	"github.com/mykeysuk/handyelite/internal/validation"
)

type Handler struct {
	service      *Service
	val          *validation.Validator
	log          *slog.Logger
	cookieSecure bool
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, cookieSecure bool) *Handler {
	return &Handler{
		service:      service,
		val:          val,
		log:          log,
		cookieSecure: cookieSecure,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req RegisterRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("register: invalid json")
		httpx.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("register: validation error")
		httpx.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	user, token, err := h.service.Register(ctx, req)
	if err != nil {
		h.writeAuthError(w, log, "register", err)
		return
	}

	h.setSessionCookie(w, token)
	log.Info("register: ok", slog.String("uid", user.UID))
	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("login: invalid json")
		httpx.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("login: validation error")
		httpx.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	user, token, err := h.service.Login(ctx, req)
	if err != nil {
		h.writeAuthError(w, log, "login", err)
		return
	}

	h.setSessionCookie(w, token)
	log.Info("login: ok", slog.String("uid", user.UID))
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "he_access",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) RequestPhoneCode(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req PhoneCodeRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("phone request: invalid json")
		httpx.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("phone request: validation error")
		httpx.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	challengeID, err := h.service.RequestPhoneCode(ctx, req.Phone)
	if err != nil {
		h.writeAuthError(w, log, "phone request", err)
		return
	}

	log.Info("phone request: challenge issued", slog.String("challenge_id", challengeID))
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"challengeId": challengeID,
	})
}

func (h *Handler) VerifyPhoneCode(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req PhoneVerifyRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("phone verify: invalid json")
		httpx.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("phone verify: validation error")
		httpx.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	user, token, err := h.service.VerifyPhoneCode(ctx, req)
	if err != nil {
		h.writeAuthError(w, log, "phone verify", err)
		return
	}

	h.setSessionCookie(w, token)
	log.Info("phone verify: ok", slog.String("uid", user.UID))
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.service.Get(ctx, ident.UID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		log.Error("me: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}

	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("profile update: invalid json")
		httpx.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("profile update: validation error")
		httpx.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.service.UpdateProfile(ctx, ident.UID, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		log.Error("profile update: database error", slog.String("error", err.Error()))
		httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("profile update: ok", slog.String("uid", user.UID))
	httpx.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) writeAuthError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		log.Warn(op+": rejected", slog.String("code", authErr.Code))
		httpx.WriteError(w, statusForCode(authErr.Code), authErr.Message(), map[string]string{"code": authErr.Code})
		return
	}
	log.Error(op+": database error", slog.String("error", err.Error()))
	httpx.WriteError(w, http.StatusInternalServerError, "database error", nil)
}

func statusForCode(code string) int {
	switch code {
	case CodeInvalidCredential:
		return http.StatusUnauthorized
	case CodeEmailInUse:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "he_access",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
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
