package middleware

import (
	"net/http"
	"slices"

	"go.uber.org/zap"
)

// RequireRole lets a request through only when the authenticated user has one of roles
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok || !slices.Contains(roles, role) {
				logger.Warn("User role not authorized",
					zap.String("role", role),
					zap.Strings("allowed_roles", roles),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRole restricted to administrators
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, "admin")
}
