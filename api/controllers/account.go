package controllers

import (
	"net/http"

	"github.com/avelichko/vitrina-storefront/api/middleware"
	"github.com/avelichko/vitrina-storefront/api/responses"
	"github.com/avelichko/vitrina-storefront/api/validators"
	"github.com/avelichko/vitrina-storefront/internal/cart"
	"github.com/avelichko/vitrina-storefront/internal/session"
	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Login exchanges credentials with the shop and persists the session.
func Login(guard *session.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session guard unavailable"))
			return
		}

		var payload loginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(ctx)
		sess, err := guard.Login(ctx, sessionID, payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, sess.User)
	}
}

// Register creates a shop account and persists the fresh session.
func Register(guard *session.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session guard unavailable"))
			return
		}

		var payload registerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(ctx)
		sess, err := guard.Register(ctx, sessionID, payload.Name, payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sess.User)
	}
}

// Logout drops the persisted session and forgets the in-memory cart
// engine. The cart snapshot stays put for the next visit.
func Logout(guard *session.Guard, registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session guard unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(ctx)
		guard.Invalidate(ctx, sessionID)
		if registry != nil {
			registry.Drop(sessionID)
		}

		responses.WriteSuccess(w, map[string]bool{"logged_out": true})
	}
}

// Me returns the current profile, refreshed from the shop.
func Me(guard *session.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session guard unavailable"))
			return
		}

		user, err := guard.RefreshUser(ctx, middleware.SessionIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}
