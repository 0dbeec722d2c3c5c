package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"induct/pkg/requestcontext"
)

// TokenValidator validates bearer tokens presented by operator terminals.
// Token issuance is handled by an external auth service; this middleware
// only trusts and decodes the credential.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the claims we expect from the token validator.
type Claims struct {
	OperatorID string
	Role       string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth returns middleware that validates bearer tokens and stores the
// authenticated operator in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			op := requestcontext.Operator{
				ID:   claims.OperatorID,
				Role: requestcontext.Role(claims.Role),
			}
			if op.ID == "" {
				logger.WarnContext(ctx, "unauthorized access - token missing subject",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			if op.Role != requestcontext.RoleAdmin {
				op.Role = requestcontext.RoleOperator
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithOperator(ctx, op)))
		})
	}
}

// RequireAdmin returns middleware that rejects non-admin operators. It must
// be registered after RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			op := requestcontext.OperatorFrom(ctx)
			if !op.IsAdmin() {
				logger.WarnContext(ctx, "forbidden - admin role required",
					"operator_id", op.ID,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
