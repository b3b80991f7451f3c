package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snaapconnections/storefront/pkg/logger"
)

const (
	sessionHeader = "X-Storefront-Session"
	sessionCookie = "sf_session"
	sessionMaxLen = 128

	sessionCookieMaxAge = 30 * 24 * time.Hour
)

// Session resolves the shopper session from the header or cookie and mints a
// new one when neither carries a usable value. The id is echoed back in both.
func Session(logg *logger.Logger, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := normalizeSessionID(r.Header.Get(sessionHeader))
			if sid == "" {
				if c, err := r.Cookie(sessionCookie); err == nil {
					sid = normalizeSessionID(c.Value)
				}
			}
			minted := false
			if sid == "" {
				sid = uuid.NewString()
				minted = true
			}

			w.Header().Set(sessionHeader, sid)
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(sessionCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithSessionID(r.Context(), sid)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sid)
				if minted {
					logg.Debug(ctx, "session.minted")
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// normalizeSessionID accepts opaque ids made of letters, digits, '-' and '_'.
func normalizeSessionID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > sessionMaxLen {
		return ""
	}
	for _, c := range raw {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ""
		}
	}
	return raw
}
