package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
	"github.com/avelichko/vitrina-storefront/pkg/store"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// memStore is an in-memory snapshot store for engine tests.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte

	setCalls int
	setErr   error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Set(ctx context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// stubRemote records calls and fails on demand.
type stubRemote struct {
	err       error
	couponErr error
	discount  int

	addCalls    atomic.Int32
	updateCalls atomic.Int32
	removeCalls atomic.Int32
	clearCalls  atomic.Int32

	// blockQuantity, when set, holds AddToCart calls carrying that
	// quantity until blockRelease closes, forcing out-of-order
	// completion.
	blockQuantity int
	blockRelease  chan struct{}
}

func (s *stubRemote) AddToCart(ctx context.Context, req shopapi.AddToCartRequest) (*shopapi.Cart, error) {
	s.addCalls.Add(1)
	if s.blockRelease != nil && req.Quantity == s.blockQuantity {
		<-s.blockRelease
	}
	if s.err != nil {
		return nil, s.err
	}
	// Echo the request quantity so tests can tell responses apart.
	return &shopapi.Cart{Items: []shopapi.CartItem{{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}}}, nil
}

func (s *stubRemote) UpdateCartItem(ctx context.Context, req shopapi.UpdateCartItemRequest) (*shopapi.Cart, error) {
	s.updateCalls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &shopapi.Cart{}, nil
}

func (s *stubRemote) RemoveFromCart(ctx context.Context, productID string) (*shopapi.Cart, error) {
	s.removeCalls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &shopapi.Cart{}, nil
}

func (s *stubRemote) ClearCart(ctx context.Context) error {
	s.clearCalls.Add(1)
	return s.err
}

func (s *stubRemote) ApplyCoupon(ctx context.Context, code string) (*shopapi.CouponResult, error) {
	if s.couponErr != nil {
		return nil, s.couponErr
	}
	return &shopapi.CouponResult{DiscountCents: s.discount}, nil
}

func (s *stubRemote) RemoveCoupon(ctx context.Context) error {
	return s.err
}

func testEngine(t *testing.T, st store.Store, remote RemoteCart) *Engine {
	t.Helper()
	if st == nil {
		st = newMemStore()
	}
	engine, err := NewEngine(context.Background(), Config{
		SessionID: "sess-1",
		Store:     st,
		Remote:    remote,
		Logger:    logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func p1() types.Product {
	return types.Product{ID: "P1", Name: "Turbocharger", PriceCents: 100}
}

func TestAddItemMergesAndClampsQuantity(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 3, types.Variant{}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	snapshot, err := engine.AddItem(ctx, p1(), 9, types.Variant{})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(snapshot.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(snapshot.Lines))
	}
	if snapshot.Lines[0].Quantity != 10 {
		t.Fatalf("expected clamped quantity 10, got %d", snapshot.Lines[0].Quantity)
	}
}

func TestAddItemRepeatedMergesKeepSingleLine(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	requested := []int{2, 2, 2, 2, 2, 2}
	sum := 0
	for _, q := range requested {
		sum += q
		if _, err := engine.AddItem(ctx, p1(), q, types.Variant{}); err != nil {
			t.Fatalf("add %d: %v", q, err)
		}
	}

	snapshot := engine.Snapshot()
	if len(snapshot.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(snapshot.Lines))
	}
	want := sum
	if want > types.MaxLineQuantity {
		want = types.MaxLineQuantity
	}
	if snapshot.Lines[0].Quantity != want {
		t.Fatalf("expected quantity %d, got %d", want, snapshot.Lines[0].Quantity)
	}
}

func TestAddItemVariantsAreDistinctLines(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 1, types.Variant{Size: "M"}); err != nil {
		t.Fatalf("add M: %v", err)
	}
	snapshot, err := engine.AddItem(ctx, p1(), 1, types.Variant{Size: "L"})
	if err != nil {
		t.Fatalf("add L: %v", err)
	}
	if len(snapshot.Lines) != 2 {
		t.Fatalf("expected two lines for distinct variants, got %d", len(snapshot.Lines))
	}
}

func TestAddItemDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	snapshot, err := engine.AddItem(ctx, p1(), 0, types.Variant{})
	if err != nil {
		t.Fatalf("add with zero quantity: %v", err)
	}
	if snapshot.Lines[0].Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", snapshot.Lines[0].Quantity)
	}

	cases := []struct {
		name     string
		product  types.Product
		quantity int
	}{
		{"negative quantity", p1(), -1},
		{"missing id", types.Product{Name: "x", PriceCents: 1}, 1},
		{"missing name", types.Product{ID: "x", PriceCents: 1}, 1},
		{"negative price", types.Product{ID: "x", Name: "x", PriceCents: -1}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := engine.Snapshot()
			_, err := engine.AddItem(ctx, tc.product, tc.quantity, types.Variant{})
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !reflect.DeepEqual(before, engine.Snapshot()) {
				t.Fatal("rejected add must not change state")
			}
		})
	}
}

func TestUpdateQuantityRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 5, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := engine.Snapshot()

	for _, quantity := range []int{0, -3, 11, 100} {
		_, err := engine.UpdateQuantity(ctx, "P1", quantity, types.Variant{})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("quantity %d: expected validation error, got %v", quantity, err)
		}
	}

	if !reflect.DeepEqual(before, engine.Snapshot()) {
		t.Fatal("out-of-range update must not change state")
	}
}

func TestUpdateQuantityOnEmptyCartIsNoop(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)

	snapshot, err := engine.UpdateQuantity(context.Background(), "P1", 5, types.Variant{})
	if err != nil {
		t.Fatalf("update on empty cart: %v", err)
	}
	if len(snapshot.Lines) != 0 {
		t.Fatalf("no line may be fabricated, got %+v", snapshot.Lines)
	}
}

func TestUpdateQuantityReplacesValue(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	snapshot, err := engine.UpdateQuantity(ctx, "P1", 7, types.Variant{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if snapshot.Lines[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", snapshot.Lines[0].Quantity)
	}
}

func TestRemoveItemAbsentKeyLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{Size: "M"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := engine.Snapshot()

	after := engine.RemoveItem(ctx, "other", types.Variant{})
	if !reflect.DeepEqual(before, after) {
		t.Fatal("removing an absent key must be a no-op")
	}

	// Same product but different variant is also absent.
	after = engine.RemoveItem(ctx, "P1", types.Variant{Size: "L"})
	if !reflect.DeepEqual(before, after) {
		t.Fatal("variant mismatch must be a no-op")
	}
}

func TestRemoveItemDropsLine(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	snapshot := engine.RemoveItem(ctx, "P1", types.Variant{})
	if len(snapshot.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", snapshot.Lines)
	}
}

func TestClearResetsLinesAndCoupon(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, &stubRemote{couponErr: errors.New("down")})
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.ApplyCoupon(ctx, "DISCOUNT10", types.ShippingStandard); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}

	snapshot := engine.Clear(ctx)
	if len(snapshot.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", snapshot.Lines)
	}
	if snapshot.Coupon.Applied || snapshot.Coupon.Code != "" {
		t.Fatalf("expected coupon reset, got %+v", snapshot.Coupon)
	}
}

func TestApplyCouponPrefersRemoteDiscount(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{discount: 250}
	engine := testEngine(t, nil, remote)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	snapshot, err := engine.ApplyCoupon(ctx, "discount10", types.ShippingStandard)
	if err != nil {
		t.Fatalf("apply coupon: %v", err)
	}
	if !snapshot.Coupon.Applied || snapshot.Coupon.Code != "DISCOUNT10" {
		t.Fatalf("unexpected coupon %+v", snapshot.Coupon)
	}
	if snapshot.Coupon.DiscountCents != 250 {
		t.Fatalf("expected remote discount 250, got %d", snapshot.Coupon.DiscountCents)
	}
}

func TestApplyCouponFallsBackToLocalTable(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{couponErr: errors.New("connection refused")}
	engine := testEngine(t, nil, remote)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	snapshot, err := engine.ApplyCoupon(ctx, "DISCOUNT10", types.ShippingStandard)
	if err != nil {
		t.Fatalf("apply coupon: %v", err)
	}

	// Subtotal 200, 10% off.
	if snapshot.Coupon.DiscountCents != 20 {
		t.Fatalf("expected local discount 20, got %d", snapshot.Coupon.DiscountCents)
	}
	if got := engine.TotalCents(types.ShippingStandard); got != 480 {
		t.Fatalf("expected total 480, got %d", got)
	}
}

func TestApplyCouponUnknownCodeRejected(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{couponErr: errors.New("timeout")}
	engine := testEngine(t, nil, remote)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := engine.Snapshot()

	_, err := engine.ApplyCoupon(ctx, "BOGUS", types.ShippingStandard)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCoupon {
		t.Fatalf("expected coupon rejection, got %v", err)
	}
	if !reflect.DeepEqual(before, engine.Snapshot()) {
		t.Fatal("rejected coupon must not change state")
	}
}

func TestApplyFreeShippingWaivesMethodCost(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{couponErr: errors.New("down")}
	engine := testEngine(t, nil, remote)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	snapshot, err := engine.ApplyCoupon(ctx, "FREESHIP", types.ShippingExpress)
	if err != nil {
		t.Fatalf("apply coupon: %v", err)
	}
	if snapshot.Coupon.DiscountCents != 600 {
		t.Fatalf("expected express cost 600 waived, got %d", snapshot.Coupon.DiscountCents)
	}
	// Subtotal 200 + express 600 - 600.
	if got := engine.TotalCents(types.ShippingExpress); got != 200 {
		t.Fatalf("expected total 200, got %d", got)
	}
}

func TestTotalIsNotFlooredAtZero(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{discount: 5000}
	engine := testEngine(t, nil, remote)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.ApplyCoupon(ctx, "DISCOUNT10", types.ShippingPickup); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}
	if got := engine.TotalCents(types.ShippingPickup); got != -4800 {
		t.Fatalf("expected negative total -4800, got %d", got)
	}
}

func TestRemoteFailureKeepsLocalState(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{err: errors.New("network unreachable")}
	engine := testEngine(t, nil, remote)
	ctx := context.Background()

	snapshot, err := engine.AddItem(ctx, p1(), 1, types.Variant{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	engine.Wait()

	if len(snapshot.Lines) != 1 {
		t.Fatalf("local mutation must survive remote failure, got %+v", snapshot.Lines)
	}
	if remote.addCalls.Load() != 1 {
		t.Fatalf("expected one remote attempt, got %d", remote.addCalls.Load())
	}
	// No rollback on the engine either.
	if len(engine.Snapshot().Lines) != 1 {
		t.Fatal("engine state rolled back after remote failure")
	}
}

func TestRemoteUnauthorizedTriggersSessionInvalidation(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired")}
	st := newMemStore()

	var invalidated atomic.Bool
	engine, err := NewEngine(context.Background(), Config{
		SessionID: "sess-1",
		Store:     st,
		Remote:    remote,
		Logger:    logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard}),
		OnUnauthorized: func(ctx context.Context) {
			invalidated.Store(true)
		},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if _, err := engine.AddItem(context.Background(), p1(), 1, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	engine.Wait()

	if !invalidated.Load() {
		t.Fatal("expected unauthorized handler to run")
	}
	// Local state still reflects the optimistic mutation.
	if len(engine.Snapshot().Lines) != 1 {
		t.Fatal("local state must survive a 401")
	}
}

func TestStaleRemoteResponseDiscarded(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	remote := &stubRemote{blockQuantity: 3, blockRelease: release}
	engine := testEngine(t, nil, remote)
	ctx := context.Background()

	// The first sync (quantity 3) stalls in the stub; the second
	// (quantity 1) completes before it.
	if _, err := engine.AddItem(ctx, p1(), 3, types.Variant{}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := engine.AddItem(ctx, p1(), 1, types.Variant{}); err != nil {
		t.Fatalf("second add: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for remote.addCalls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("second remote call never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	// Give the second response time to land, then release the first.
	time.Sleep(10 * time.Millisecond)
	close(release)
	engine.Wait()

	confirmed := engine.ConfirmedRemote()
	if confirmed == nil {
		t.Fatal("expected a confirmed remote view")
	}
	// Responses echo their request quantity; the stalled first response
	// must not have overwritten the newer one.
	if confirmed.Items[0].Quantity != 1 {
		t.Fatalf("stale response applied, got echoed quantity %d", confirmed.Items[0].Quantity)
	}
}

func TestSnapshotRoundTripThroughStore(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	engine := testEngine(t, st, nil)
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 3, types.Variant{Size: "M"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.AddItem(ctx, types.Product{ID: "P2", Name: "Filter", PriceCents: 950}, 1, types.Variant{}); err != nil {
		t.Fatalf("add second: %v", err)
	}
	want := engine.Snapshot()

	rehydrated := testEngine(t, st, nil)
	if got := rehydrated.Snapshot(); !reflect.DeepEqual(want, got) {
		t.Fatalf("round-trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestCorruptSnapshotYieldsEmptyCart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshots.json")
	fileStore, err := store.NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	// Plant a value under the cart key that does not decode as a cart.
	if err := fileStore.Set(context.Background(), store.CartKey("sess-1"), "not a cart"); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	engine := testEngine(t, fileStore, nil)
	if snapshot := engine.Snapshot(); len(snapshot.Lines) != 0 || snapshot.Coupon.Applied {
		t.Fatalf("corrupt snapshot must yield an empty cart, got %+v", snapshot)
	}

	// The engine recovers: the next mutation persists a clean snapshot.
	if _, err := engine.AddItem(context.Background(), p1(), 1, types.Variant{}); err != nil {
		t.Fatalf("add after corrupt hydrate: %v", err)
	}
	rehydrated := testEngine(t, fileStore, nil)
	if got := rehydrated.Snapshot(); len(got.Lines) != 1 {
		t.Fatalf("expected recovered snapshot, got %+v", got)
	}
}

func TestPersistFailureDoesNotBlockMutation(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	st.setErr = errors.New("disk full")
	engine := testEngine(t, st, nil)

	snapshot, err := engine.AddItem(context.Background(), p1(), 1, types.Variant{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(snapshot.Lines) != 1 {
		t.Fatal("in-memory state must win over persistence failures")
	}
}

func TestSubscribersReceiveEveryMutation(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, nil)
	ctx := context.Background()

	var got []types.CartSnapshot
	engine.Subscribe(func(s types.CartSnapshot) {
		got = append(got, s)
	})

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	engine.RemoveItem(ctx, "P1", types.Variant{})
	engine.Clear(ctx)

	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].ItemCount() != 2 || got[1].ItemCount() != 0 {
		t.Fatalf("unexpected event payloads %+v", got)
	}
}

func TestTotalIsPureFunctionOfInputs(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, nil, &stubRemote{couponErr: errors.New("down")})
	ctx := context.Background()

	if _, err := engine.AddItem(ctx, p1(), 2, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := engine.ApplyCoupon(ctx, "DISCOUNT10", types.ShippingStandard); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}

	first := engine.TotalCents(types.ShippingStandard)
	second := engine.TotalCents(types.ShippingStandard)
	if first != second {
		t.Fatalf("total not stable: %d then %d", first, second)
	}
}

func TestRegistryReusesAndDropsEngines(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(RegistryConfig{
		Store:  newMemStore(),
		Logger: logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx := context.Background()

	first, err := registry.Engine(ctx, "sess-1")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	again, err := registry.Engine(ctx, "sess-1")
	if err != nil {
		t.Fatalf("engine again: %v", err)
	}
	if first != again {
		t.Fatal("expected the same engine for one session")
	}

	other, err := registry.Engine(ctx, "sess-2")
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if other == first {
		t.Fatal("sessions must not share engines")
	}

	registry.Drop("sess-1")
	fresh, err := registry.Engine(ctx, "sess-1")
	if err != nil {
		t.Fatalf("engine after drop: %v", err)
	}
	if fresh == first {
		t.Fatal("dropped session must get a fresh engine")
	}
}

func TestRegistryRehydratesDroppedSessionFromStore(t *testing.T) {
	t.Parallel()

	st := newMemStore()
	registry, err := NewRegistry(RegistryConfig{
		Store:  st,
		Logger: logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx := context.Background()

	engine, err := registry.Engine(ctx, "sess-1")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, err := engine.AddItem(ctx, p1(), 4, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}

	registry.Drop("sess-1")
	fresh, err := registry.Engine(ctx, "sess-1")
	if err != nil {
		t.Fatalf("engine after drop: %v", err)
	}
	if got := fresh.Snapshot(); len(got.Lines) != 1 || got.Lines[0].Quantity != 4 {
		t.Fatalf("expected rehydrated snapshot, got %+v", got)
	}
}

func TestRegistryPropagatesUnauthorizedWithSession(t *testing.T) {
	t.Parallel()

	remote := &stubRemote{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "expired")}

	var mu sync.Mutex
	var invalidatedSessions []string

	registry, err := NewRegistry(RegistryConfig{
		Store:  newMemStore(),
		Remote: remote,
		Logger: logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard}),
		OnUnauthorized: func(ctx context.Context, sessionID string) {
			mu.Lock()
			invalidatedSessions = append(invalidatedSessions, sessionID)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx := context.Background()

	engine, err := registry.Engine(ctx, "sess-9")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, err := engine.AddItem(ctx, p1(), 1, types.Variant{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	registry.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(invalidatedSessions) != 1 || invalidatedSessions[0] != "sess-9" {
		t.Fatalf("expected sess-9 invalidated, got %v", invalidatedSessions)
	}
}
