package session

import (
	"context"
	"fmt"

	"github.com/avelichko/vitrina-storefront/pkg/auth"
	"github.com/avelichko/vitrina-storefront/pkg/config"
	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
	"github.com/avelichko/vitrina-storefront/pkg/store"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// shopAccount is the slice of the shop client the guard depends on.
type shopAccount interface {
	Login(ctx context.Context, req shopapi.LoginRequest) (*types.Session, error)
	Register(ctx context.Context, req shopapi.RegisterRequest) (*types.Session, error)
	Me(ctx context.Context) (*types.User, error)
}

// Guard owns the persisted session for each storefront visitor and
// gates checkout/profile flows on its validity.
type Guard struct {
	store  store.Store
	shop   shopAccount
	jwtCfg config.JWTConfig
	logg   *logger.Logger
}

// NewGuard wires the session guard.
func NewGuard(st store.Store, shop shopAccount, jwtCfg config.JWTConfig, logg *logger.Logger) (*Guard, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if shop == nil {
		return nil, fmt.Errorf("shop client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Guard{store: st, shop: shop, jwtCfg: jwtCfg, logg: logg}, nil
}

// Login exchanges credentials with the shop and persists the session.
func (g *Guard) Login(ctx context.Context, sessionID, email, password string) (*types.Session, error) {
	session, err := g.shop.Login(ctx, shopapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := g.save(ctx, sessionID, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Register creates a shop account and persists the fresh session.
func (g *Guard) Register(ctx context.Context, sessionID, name, email, password string) (*types.Session, error) {
	session, err := g.shop.Register(ctx, shopapi.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := g.save(ctx, sessionID, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (g *Guard) save(ctx context.Context, sessionID string, session *types.Session) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session ID is required")
	}
	if err := g.store.Set(ctx, store.SessionKey(sessionID), session); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

// Current returns the persisted session if one exists and its token
// still validates. An expired or tampered token drops the session.
func (g *Guard) Current(ctx context.Context, sessionID string) (*types.Session, bool) {
	if sessionID == "" {
		return nil, false
	}

	var session types.Session
	found, err := g.store.Get(ctx, store.SessionKey(sessionID), &session)
	if err != nil || !found || session.Token == "" {
		return nil, false
	}

	if _, err := auth.ParseSessionToken(g.jwtCfg, session.Token); err != nil {
		g.logg.Warn(g.logg.WithField(ctx, "reason", err.Error()), "persisted session token invalid, dropping session")
		g.Invalidate(ctx, sessionID)
		return nil, false
	}
	return &session, true
}

// IsAuthenticated reports whether the visitor holds a valid session.
func (g *Guard) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, ok := g.Current(ctx, sessionID)
	return ok
}

// CurrentUser returns the session's user, or nil when logged out.
func (g *Guard) CurrentUser(ctx context.Context, sessionID string) *types.User {
	session, ok := g.Current(ctx, sessionID)
	if !ok {
		return nil
	}
	user := session.User
	return &user
}

// RefreshUser re-reads the profile from the shop and updates the
// persisted session. The shop rejecting the token invalidates it.
func (g *Guard) RefreshUser(ctx context.Context, sessionID string) (*types.User, error) {
	session, ok := g.Current(ctx, sessionID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}

	user, err := g.shop.Me(shopapi.WithBearer(ctx, session.Token))
	if err != nil {
		if shopapi.IsUnauthorized(err) {
			g.Invalidate(ctx, sessionID)
		}
		return nil, err
	}

	session.User = *user
	if err := g.save(ctx, sessionID, session); err != nil {
		return nil, err
	}
	return user, nil
}

// Invalidate drops the persisted session. Used on logout and whenever
// any upstream call returns a 401.
func (g *Guard) Invalidate(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := g.store.Remove(ctx, store.SessionKey(sessionID)); err != nil {
		g.logg.Warn(g.logg.WithField(ctx, "reason", err.Error()), "failed to remove session key")
	}
}
