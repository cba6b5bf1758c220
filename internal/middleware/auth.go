package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mykeysuk/handyelite/internal/auth"
	"github.com/mykeysuk/handyelite/internal/httpx"
)

// Identity is the authenticated caller, carried in the request context.
// Handlers never consult a process-wide current user; the parsed token
// is the single source of identity for a request.
type Identity struct {
	UID  string
	Role string
}

type identityKey struct{}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey{}).(Identity)
	return v, ok
}

// UserAuth requires a valid access token, from the Authorization bearer
// header or the session cookie, and rejects the request with 401
// otherwise.
func UserAuth(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				httpx.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
				return
			}

			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie("he_access"); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
				return
			}

			claims, err := manager.Parse(token)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", nil)
				return
			}

			ident := Identity{UID: claims.UID, Role: claims.Role}
			ctx := context.WithValue(r.Context(), identityKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuth admits either the static operator key or a token carrying
// the admin role.
func AdminAuth(adminKey string, manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" && manager == nil {
				httpx.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
				return
			}

			if adminKey != "" && r.Header.Get("X-Admin-Key") == adminKey {
				next.ServeHTTP(w, r)
				return
			}

			if manager != nil {
				token := bearerToken(r)
				if token == "" {
					if cookie, err := r.Cookie("he_access"); err == nil {
						token = cookie.Value
					}
				}
				if token != "" {
					claims, err := manager.Parse(token)
					if err == nil && claims.Role == auth.RoleAdmin {
						ident := Identity{UID: claims.UID, Role: claims.Role}
						ctx := context.WithValue(r.Context(), identityKey{}, ident)
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}
			}

			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
