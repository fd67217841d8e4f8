package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-canteen/internal/logger"
	"ms-canteen/internal/utils"
)

type contextKey string

const adminIDKey contextKey = "admin_id"

// AdminOnly lets through requests bearing a valid admin token. An empty
// secret rejects everything.
func AdminOnly(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(key) == 0 {
				log.LogSecurity("ADMIN_DISABLED", fmt.Sprintf("%s %s rejected, no admin secret configured", r.Method, r.URL.Path))
				utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Admin access disabled", "no admin secret configured"))
				return
			}

			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Authorization required", err.Error()))
				return
			}

			claims, err := ParseAdminToken(rawToken, key)
			if errors.Is(err, ErrNotAdmin) {
				log.LogSecurity("FORBIDDEN", fmt.Sprintf("%s %s by %s", r.Method, r.URL.Path, claims.Subject))
				utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Admin role required", err.Error()))
				return
			}
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", err.Error())
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Invalid token", err.Error()))
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminID returns the subject of the admin token on ctx.
func AdminID(ctx context.Context) string {
	if id, ok := ctx.Value(adminIDKey).(string); ok {
		return id
	}
	return ""
}
