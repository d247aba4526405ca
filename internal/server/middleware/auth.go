package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/bookmarks/internal/server/handlers"
)

// AuthMiddleware проверяет JWT access token из заголовка Authorization
// и кладёт user_id/username в контекст запроса
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			if header == "" {
				logger.DebugContext(ctx, "missing Authorization header", slog.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "missing token")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				logger.WarnContext(ctx, "invalid Authorization header format", slog.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(ctx, "invalid access token", slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			logger.DebugContext(ctx, "user authenticated", slog.String("user_id", claims.UserID))

			next.ServeHTTP(w, r.WithContext(handlers.WithIdentity(ctx, claims.UserID, claims.Username)))
		})
	}
}
