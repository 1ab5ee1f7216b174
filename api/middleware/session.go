package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/vitrina-storefront/pkg/logger"
)

const (
	sessionCookieName = "vitrina_session"
	sessionHeader     = "X-Session-Id"

	sessionCookieMaxAge = 30 * 24 * time.Hour
)

// Session assigns every visitor a stable browsing session identifier.
// The ID comes from the session cookie, falling back to the header for
// non-browser clients, and is minted fresh when neither is present.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(sessionCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(sessionHeader, sessionID)

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionIDFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if id := strings.TrimSpace(cookie.Value); id != "" {
			return id
		}
	}
	return strings.TrimSpace(r.Header.Get(sessionHeader))
}
