package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

// TokenValidator resolves a bearer token to a session id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// SessionMiddleware validates the session bearer token and injects the session id into context.
func SessionMiddleware(sessions TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("session: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeJSON(w, http.StatusUnauthorized, errorResponse{
					Error:    "Sessão não informada",
					Redirect: "home",
				})
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("session: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "Formato de token inválido")
				return
			}

			sessionID, err := sessions.ValidateToken(parts[1])
			if err != nil {
				logger.Warn("session: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Redirect: "home"})
				return
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext extracts the session id placed by SessionMiddleware.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}
