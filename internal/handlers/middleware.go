package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/techradar/apiserver/internal/services"
	"github.com/techradar/apiserver/types"
)

type contextKey string

const authContextKey contextKey = "authContext"

// ResolveAuth computes the request's auth context at most once and stores
// it in the request context. A missing or invalid bearer token leaves the
// request anonymous; it never short-circuits the request by itself.
func ResolveAuth(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := authService.ResolveContext(r.Context(), token)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if authCtx == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), authContextKey, authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authContextFrom(r) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authContextFrom returns the resolved auth context, or nil for an
// anonymous request.
func authContextFrom(r *http.Request) *types.AuthContext {
	authCtx, _ := r.Context().Value(authContextKey).(*types.AuthContext)
	return authCtx
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
