package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/metrics"
	"github.com/avelichko/vitrina-storefront/pkg/store"
)

// Registry hands out one engine per session, hydrating each from its
// persisted snapshot on first access.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*Engine

	store          store.Store
	remote         RemoteCart
	logg           *logger.Logger
	metrics        *metrics.CartMetrics
	onUnauthorized func(ctx context.Context, sessionID string)
	syncTimeout    time.Duration
}

// RegistryConfig wires the shared collaborators every engine uses.
type RegistryConfig struct {
	Store          store.Store
	Remote         RemoteCart
	Logger         *logger.Logger
	Metrics        *metrics.CartMetrics
	OnUnauthorized func(ctx context.Context, sessionID string)
	SyncTimeout    time.Duration
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Registry{
		engines:        make(map[string]*Engine),
		store:          cfg.Store,
		remote:         cfg.Remote,
		logg:           cfg.Logger,
		metrics:        cfg.Metrics,
		onUnauthorized: cfg.OnUnauthorized,
		syncTimeout:    cfg.SyncTimeout,
	}, nil
}

// Engine returns the session's engine, creating and hydrating it on
// first access.
func (r *Registry) Engine(ctx context.Context, sessionID string) (*Engine, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if engine, ok := r.engines[sessionID]; ok {
		return engine, nil
	}

	var onUnauthorized func(ctx context.Context)
	if r.onUnauthorized != nil {
		handler := r.onUnauthorized
		onUnauthorized = func(ctx context.Context) {
			handler(ctx, sessionID)
		}
	}

	engine, err := NewEngine(ctx, Config{
		SessionID:      sessionID,
		Store:          r.store,
		Remote:         r.remote,
		Logger:         r.logg,
		Metrics:        r.metrics,
		OnUnauthorized: onUnauthorized,
		SyncTimeout:    r.syncTimeout,
	})
	if err != nil {
		return nil, err
	}

	r.engines[sessionID] = engine
	return engine, nil
}

// Drop forgets the session's engine. The persisted snapshot is left
// untouched; the next access rehydrates from it.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, sessionID)
}

// Wait blocks until every engine's in-flight remote syncs settle.
func (r *Registry) Wait() {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, engine := range r.engines {
		engines = append(engines, engine)
	}
	r.mu.Unlock()

	for _, engine := range engines {
		engine.Wait()
	}
}
