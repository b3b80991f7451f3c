package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/snaapconnections/storefront/api/responses"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/logger"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

var tokenParser = jwt.NewParser()

// RequireAdmin rejects requests without a live admin bearer token. The
// signature is not checked here; the remote API verifies it on every call.
// The token is forwarded to the remote API through the request context.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if err := checkExpiry(token, time.Now()); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxAdminToken, token)
			ctx = storefrontapi.WithBearerToken(ctx, token)
			if logg != nil {
				ctx = logg.WithField(ctx, "actor_role", "admin")
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

func checkExpiry(token string, now time.Time) error {
	claims := jwt.RegisteredClaims{}
	if _, _, err := tokenParser.ParseUnverified(token, &claims); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}
	return nil
}
