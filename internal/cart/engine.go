package cart

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/metrics"
	"github.com/avelichko/vitrina-storefront/pkg/pricing"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
	"github.com/avelichko/vitrina-storefront/pkg/store"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

const (
	defaultSyncTimeout = 15 * time.Second

	opAddItem      = "add_item"
	opRemoveItem   = "remove_item"
	opUpdateQty    = "update_quantity"
	opClear        = "clear"
	opApplyCoupon  = "apply_coupon"
	opRemoveCoupon = "remove_coupon"
)

// RemoteCart is the slice of the shop client the engine syncs against.
type RemoteCart interface {
	AddToCart(ctx context.Context, req shopapi.AddToCartRequest) (*shopapi.Cart, error)
	UpdateCartItem(ctx context.Context, req shopapi.UpdateCartItemRequest) (*shopapi.Cart, error)
	RemoveFromCart(ctx context.Context, productID string) (*shopapi.Cart, error)
	ClearCart(ctx context.Context) error
	ApplyCoupon(ctx context.Context, code string) (*shopapi.CouponResult, error)
	RemoveCoupon(ctx context.Context) error
}

// Subscriber receives a snapshot after every applied mutation.
type Subscriber func(types.CartSnapshot)

// Config wires an engine for one session.
type Config struct {
	SessionID string
	Store     store.Store
	Remote    RemoteCart
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics

	// OnUnauthorized runs when the shop rejects the session's credentials.
	OnUnauthorized func(ctx context.Context)

	// SyncTimeout bounds each fire-and-forget remote call.
	SyncTimeout time.Duration
}

// Engine owns the canonical cart for one session. Local state is the
// operative truth; the shop is synced best-effort and never blocks a
// mutation.
type Engine struct {
	mu     sync.Mutex
	lines  []types.CartLine
	coupon types.Coupon
	subs   []Subscriber

	// confirmed holds the newest shop response that was not superseded
	// by a later local mutation.
	confirmed    *shopapi.Cart
	confirmedSeq uint64

	seq atomic.Uint64
	wg  sync.WaitGroup

	sessionID      string
	store          store.Store
	remote         RemoteCart
	logg           *logger.Logger
	metrics        *metrics.CartMetrics
	onUnauthorized func(ctx context.Context)
	syncTimeout    time.Duration
}

// NewEngine builds an engine and hydrates it from the persisted
// snapshot. A missing or corrupt snapshot yields an empty cart.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	timeout := cfg.SyncTimeout
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}

	e := &Engine{
		sessionID:      cfg.SessionID,
		store:          cfg.Store,
		remote:         cfg.Remote,
		logg:           cfg.Logger,
		metrics:        cfg.Metrics,
		onUnauthorized: cfg.OnUnauthorized,
		syncTimeout:    timeout,
	}

	var snapshot types.CartSnapshot
	found, err := cfg.Store.Get(ctx, store.CartKey(cfg.SessionID), &snapshot)
	if err != nil {
		return nil, fmt.Errorf("hydrating cart snapshot: %w", err)
	}
	if found {
		e.lines = snapshot.Lines
		e.coupon = snapshot.Coupon
	}

	return e, nil
}

// Subscribe registers a callback fired after every applied mutation.
func (e *Engine) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, sub)
}

// Snapshot returns a copy of the current cart state.
func (e *Engine) Snapshot() types.CartSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() types.CartSnapshot {
	lines := make([]types.CartLine, len(e.lines))
	copy(lines, e.lines)
	return types.CartSnapshot{Lines: lines, Coupon: e.coupon}
}

// AddItem merges the product into the cart. Quantities addressed to an
// existing line sum and clamp silently at the per-line maximum.
func (e *Engine) AddItem(ctx context.Context, product types.Product, quantity int, variant types.Variant) (types.CartSnapshot, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return e.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	if product.ID == "" {
		return e.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	if product.Name == "" {
		return e.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if product.PriceCents < 0 {
		return e.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative")
	}

	key := types.LineKey{ProductID: product.ID, Color: variant.Color, Size: variant.Size}

	e.mu.Lock()
	merged := false
	for i := range e.lines {
		if e.lines[i].Key() == key {
			e.lines[i].Quantity = clampQuantity(e.lines[i].Quantity + quantity)
			merged = true
			break
		}
	}
	if !merged {
		e.lines = append(e.lines, types.CartLine{
			ProductID:      product.ID,
			Variant:        variant,
			Quantity:       clampQuantity(quantity),
			UnitPriceCents: product.PriceCents,
			Name:           product.Name,
			Image:          product.Image,
		})
	}
	snapshot := e.commitLocked(ctx, opAddItem)
	e.mu.Unlock()

	e.publish(snapshot)
	e.dispatch(ctx, opAddItem, func(ctx context.Context) (*shopapi.Cart, error) {
		return e.remote.AddToCart(ctx, shopapi.AddToCartRequest{
			ProductID: product.ID,
			Quantity:  quantity,
			Color:     variant.Color,
			Size:      variant.Size,
		})
	})
	return snapshot, nil
}

// RemoveItem drops the matching line. Absent lines are a no-op.
func (e *Engine) RemoveItem(ctx context.Context, productID string, variant types.Variant) types.CartSnapshot {
	key := types.LineKey{ProductID: productID, Color: variant.Color, Size: variant.Size}

	e.mu.Lock()
	removed := false
	for i := range e.lines {
		if e.lines[i].Key() == key {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		snapshot := e.snapshotLocked()
		e.mu.Unlock()
		return snapshot
	}
	snapshot := e.commitLocked(ctx, opRemoveItem)
	e.mu.Unlock()

	e.publish(snapshot)
	e.dispatch(ctx, opRemoveItem, func(ctx context.Context) (*shopapi.Cart, error) {
		return e.remote.RemoveFromCart(ctx, productID)
	})
	return snapshot
}

// UpdateQuantity replaces a line's quantity. Values outside the allowed
// range are rejected outright rather than clamped; a missing line is
// left alone without fabricating one.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int, variant types.Variant) (types.CartSnapshot, error) {
	if quantity < types.MinLineQuantity || quantity > types.MaxLineQuantity {
		return e.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity must be between %d and %d", types.MinLineQuantity, types.MaxLineQuantity))
	}

	key := types.LineKey{ProductID: productID, Color: variant.Color, Size: variant.Size}

	e.mu.Lock()
	updated := false
	for i := range e.lines {
		if e.lines[i].Key() == key {
			e.lines[i].Quantity = quantity
			updated = true
			break
		}
	}
	if !updated {
		snapshot := e.snapshotLocked()
		e.mu.Unlock()
		return snapshot, nil
	}
	snapshot := e.commitLocked(ctx, opUpdateQty)
	e.mu.Unlock()

	e.publish(snapshot)
	e.dispatch(ctx, opUpdateQty, func(ctx context.Context) (*shopapi.Cart, error) {
		return e.remote.UpdateCartItem(ctx, shopapi.UpdateCartItemRequest{
			ProductID: productID,
			Quantity:  quantity,
			Color:     variant.Color,
			Size:      variant.Size,
		})
	})
	return snapshot, nil
}

// Clear empties the cart and resets any applied coupon.
func (e *Engine) Clear(ctx context.Context) types.CartSnapshot {
	e.mu.Lock()
	e.lines = nil
	e.coupon = types.Coupon{}
	snapshot := e.commitLocked(ctx, opClear)
	e.mu.Unlock()

	e.publish(snapshot)
	e.dispatch(ctx, opClear, func(ctx context.Context) (*shopapi.Cart, error) {
		return nil, e.remote.ClearCart(ctx)
	})
	return snapshot
}

// ApplyCoupon validates the code with the shop first and falls back to
// the local coupon table when the shop is unreachable. An unknown code
// is rejected and leaves the cart untouched.
func (e *Engine) ApplyCoupon(ctx context.Context, code string, method types.ShippingMethod) (types.CartSnapshot, error) {
	normalized := pricing.NormalizeCode(code)
	if normalized == "" {
		return e.Snapshot(), pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	var discount int
	resolved := false

	if e.remote != nil {
		callCtx, cancel := context.WithTimeout(ctx, e.syncTimeout)
		started := time.Now()
		result, err := e.remote.ApplyCoupon(callCtx, normalized)
		cancel()
		e.metrics.ObserveSyncDuration(opApplyCoupon, time.Since(started))
		if err == nil {
			discount = result.DiscountCents
			resolved = true
		} else {
			e.metrics.IncSyncFailure(opApplyCoupon)
			if shopapi.IsUnauthorized(err) {
				e.notifyUnauthorized(ctx)
			}
			e.logg.Warn(e.logg.WithField(ctx, "reason", err.Error()), "shop coupon validation unavailable, consulting local table")
		}
	}

	if !resolved {
		subtotal := pricing.SubtotalCents(e.Snapshot().Lines)
		local, known := pricing.LocalDiscountCents(normalized, subtotal, method)
		if !known {
			return e.Snapshot(), pkgerrors.New(pkgerrors.CodeCoupon, fmt.Sprintf("coupon %q is not valid", normalized))
		}
		discount = local
		e.metrics.IncLocalFallback(opApplyCoupon)
	}

	e.mu.Lock()
	e.coupon = types.Coupon{Code: normalized, DiscountCents: discount, Applied: true}
	snapshot := e.commitLocked(ctx, opApplyCoupon)
	e.mu.Unlock()

	e.publish(snapshot)
	return snapshot, nil
}

// RemoveCoupon resets the coupon locally and best-effort clears it on
// the shop.
func (e *Engine) RemoveCoupon(ctx context.Context) types.CartSnapshot {
	e.mu.Lock()
	e.coupon = types.Coupon{}
	snapshot := e.commitLocked(ctx, opRemoveCoupon)
	e.mu.Unlock()

	e.publish(snapshot)
	e.dispatch(ctx, opRemoveCoupon, func(ctx context.Context) (*shopapi.Cart, error) {
		return nil, e.remote.RemoveCoupon(ctx)
	})
	return snapshot
}

// SubtotalCents sums the cart's line prices.
func (e *Engine) SubtotalCents() int {
	return pricing.SubtotalCents(e.Snapshot().Lines)
}

// TotalCents derives the grand total for the chosen shipping method.
func (e *Engine) TotalCents(method types.ShippingMethod) int {
	snapshot := e.Snapshot()
	return pricing.TotalCents(snapshot.Lines, snapshot.Coupon, method)
}

// ConfirmedRemote returns the newest shop response that was not
// superseded by a later local mutation, or nil.
func (e *Engine) ConfirmedRemote() *shopapi.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.confirmed
}

// Wait blocks until all in-flight remote syncs settle.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// commitLocked persists the snapshot and returns it. Persistence
// failures are logged; in-memory state stays operative either way.
func (e *Engine) commitLocked(ctx context.Context, op string) types.CartSnapshot {
	snapshot := e.snapshotLocked()
	e.metrics.IncMutation(op)
	if err := e.store.Set(ctx, store.CartKey(e.sessionID), snapshot); err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "reason", err.Error()), "failed to persist cart snapshot")
	}
	return snapshot
}

func (e *Engine) publish(snapshot types.CartSnapshot) {
	e.mu.Lock()
	subs := make([]Subscriber, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot)
	}
}

// dispatch issues the remote sync without blocking the mutation. The
// response is kept only when no later mutation was issued meanwhile;
// failures are logged and counted, never surfaced to the caller.
func (e *Engine) dispatch(ctx context.Context, op string, call func(ctx context.Context) (*shopapi.Cart, error)) {
	if e.remote == nil {
		return
	}

	seq := e.seq.Add(1)
	// Detach from the request's cancellation but keep its values, so
	// the bearer token survives the handler returning.
	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.syncTimeout)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		started := time.Now()
		confirmed, err := call(syncCtx)
		e.metrics.ObserveSyncDuration(op, time.Since(started))

		if err != nil {
			e.metrics.IncSyncFailure(op)
			if shopapi.IsUnauthorized(err) {
				e.notifyUnauthorized(syncCtx)
				return
			}
			e.logg.Warn(e.logg.WithFields(syncCtx, map[string]any{
				"op":     op,
				"reason": err.Error(),
			}), "remote cart sync failed, continuing on local state")
			return
		}

		if confirmed == nil {
			return
		}

		e.mu.Lock()
		if seq == e.seq.Load() && seq > e.confirmedSeq {
			e.confirmed = confirmed
			e.confirmedSeq = seq
		} else {
			e.metrics.IncStaleDiscard(op)
		}
		e.mu.Unlock()
	}()
}

func (e *Engine) notifyUnauthorized(ctx context.Context) {
	if e.onUnauthorized == nil {
		return
	}
	e.onUnauthorized(ctx)
}

func clampQuantity(quantity int) int {
	if quantity < types.MinLineQuantity {
		return types.MinLineQuantity
	}
	if quantity > types.MaxLineQuantity {
		return types.MaxLineQuantity
	}
	return quantity
}
