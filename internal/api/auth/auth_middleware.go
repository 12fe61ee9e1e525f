package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tradepost/go-marketplace/app/observability/metrics"
	"github.com/tradepost/go-marketplace/internal/api"
	"github.com/tradepost/go-marketplace/internal/types"
)

// Typed context keys so request-scoped identity never collides with other values.
type contextKey string

const claimsKey contextKey = "authClaims"

const bearerPrefix = "Bearer "

// Authenticate is the bearer-token gate for protected routes. Missing or
// malformed headers and every verification failure collapse to the same
// generic 403 before the wrapped handler runs; the distinction between
// malformed, forged and expired tokens only surfaces in logs.
func Authenticate(logger *slog.Logger, verifier *TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
				return
			}

			// The header must match the literal pattern "Bearer <token>".
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
				return
			}
			tokenString := authHeader[len(bearerPrefix):]
			if tokenString == "" {
				l.WarnContext(ctx, "Empty bearer token")
				api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				// Keep the cause out of the response, but classify it for logs.
				reason := "invalid"
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					reason = "expired"
				case errors.Is(err, jwt.ErrTokenMalformed):
					reason = "malformed"
				case errors.Is(err, jwt.ErrTokenSignatureInvalid):
					reason = "bad_signature"
				}
				l.WarnContext(ctx, "Token verification failed",
					slog.String("reason", reason), slog.Any("error", err))
				metrics.Get().TokenRejectionsTotal.Add(ctx, 1,
					metric.WithAttributes(attribute.String("reason", reason)))
				api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
				return
			}

			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole runs after Authenticate and rejects identities outside the
// allowed roles with the "authenticated but not permitted" status.
func RequireRole(logger *slog.Logger, roles ...types.Role) func(next http.Handler) http.Handler {
	allowed := make(map[types.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaimsFromContext(r.Context())
			if !ok {
				logger.ErrorContext(r.Context(), "Claims missing from context, RequireRole must run after Authenticate")
				api.ErrorResponse(w, r, http.StatusForbidden, "Forbidden")
				return
			}
			if _, permitted := allowed[claims.Role]; !permitted {
				logger.WarnContext(r.Context(), "Role check failed",
					slog.String("role", string(claims.Role)))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaimsFromContext returns the verified claims stored by Authenticate.
func GetClaimsFromContext(ctx context.Context) (*types.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*types.Claims)
	return claims, ok
}

// GetUserIDFromContext is a convenience accessor for the resolved identity id.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}

// ContextWithClaims is used by handler tests to simulate an authenticated request.
func ContextWithClaims(ctx context.Context, claims *types.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
