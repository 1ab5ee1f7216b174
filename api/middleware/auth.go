package middleware

import (
	"net/http"

	"github.com/avelichko/vitrina-storefront/api/responses"
	"github.com/avelichko/vitrina-storefront/internal/session"
	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
)

// Bearer attaches the persisted session's shop token to the request
// context so downstream shop calls authenticate. Anonymous visitors
// pass through untouched.
func Bearer(guard *session.Guard, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, ok := guard.Current(ctx, SessionIDFromContext(ctx))
			if ok {
				ctx = shopapi.WithBearer(ctx, sess.Token)
				ctx = WithUserID(ctx, sess.User.ID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, sess.User.ID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests from visitors without a valid
// persisted session.
func RequireSession(guard *session.Guard, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if !guard.IsAuthenticated(ctx, SessionIDFromContext(ctx)) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
