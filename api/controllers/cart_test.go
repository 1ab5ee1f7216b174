package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/avelichko/vitrina-storefront/api/middleware"
	"github.com/avelichko/vitrina-storefront/internal/cart"
	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
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

type stubCatalog struct {
	product *types.Product
	err     error
}

func (s stubCatalog) ListProducts(ctx context.Context, filter shopapi.ProductFilter) ([]types.Product, error) {
	return nil, s.err
}

func (s stubCatalog) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func (s stubCatalog) SearchProducts(ctx context.Context, query string) ([]types.Product, error) {
	return nil, s.err
}

func (s stubCatalog) ProductsByCategory(ctx context.Context, category string, limit int) ([]types.Product, error) {
	return nil, s.err
}

func (s stubCatalog) NewArrivals(ctx context.Context, limit int) ([]types.Product, error) {
	return nil, s.err
}

func (s stubCatalog) FeaturedProducts(ctx context.Context, limit int) ([]types.Product, error) {
	return nil, s.err
}

func (s stubCatalog) SaleProducts(ctx context.Context, limit int) ([]types.Product, error) {
	return nil, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func newTestRegistry(t *testing.T) *cart.Registry {
	t.Helper()
	registry, err := cart.NewRegistry(cart.RegistryConfig{
		Store:  newMemStore(),
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

func withSession(req *http.Request, sessionID string) *http.Request {
	return req.WithContext(middleware.WithSessionID(req.Context(), sessionID))
}

func decodeCartView(t *testing.T, body io.Reader) cartView {
	t.Helper()
	var envelope struct {
		Data cartView `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func TestCartAddItemMergesAndPrices(t *testing.T) {
	registry := newTestRegistry(t)
	catalogSvc := stubCatalog{product: &types.Product{ID: "p1", Name: "Turbocharger", PriceCents: 5000}}
	handler := CartAddItem(registry, catalogSvc, testLogger())

	add := func(quantity int) *httptest.ResponseRecorder {
		body := strings.NewReader(`{"product_id":"p1","quantity":` + intToJSON(quantity) + `}`)
		req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body), "sess-1")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	if resp := add(3); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	resp := add(9)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	view := decodeCartView(t, resp.Body)
	if len(view.Lines) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(view.Lines))
	}
	if view.Lines[0].Quantity != types.MaxLineQuantity {
		t.Fatalf("expected merged quantity to clamp at %d, got %d", types.MaxLineQuantity, view.Lines[0].Quantity)
	}
	if view.SubtotalCents != 50000 {
		t.Fatalf("unexpected subtotal %d", view.SubtotalCents)
	}
}

func TestCartAddItemUnknownProduct(t *testing.T) {
	registry := newTestRegistry(t)
	catalogSvc := stubCatalog{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := CartAddItem(registry, catalogSvc, testLogger())

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"nope"}`)), "sess-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddItemMissingSessionContext(t *testing.T) {
	registry := newTestRegistry(t)
	catalogSvc := stubCatalog{product: &types.Product{ID: "p1", Name: "Turbocharger", PriceCents: 5000}}
	handler := CartAddItem(registry, catalogSvc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"p1"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateItemRejectsOutOfRangeQuantity(t *testing.T) {
	registry := newTestRegistry(t)
	handler := CartUpdateItem(registry, testLogger())

	req := withSession(httptest.NewRequest(http.MethodPut, "/api/v1/cart/items", strings.NewReader(`{"product_id":"p1","quantity":11}`)), "sess-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartGetRejectsUnknownShipping(t *testing.T) {
	registry := newTestRegistry(t)
	handler := CartGet(registry, testLogger())

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/v1/cart?shipping=teleport", nil), "sess-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartRemoveItemAbsentLineIsNoOp(t *testing.T) {
	registry := newTestRegistry(t)
	handler := CartRemoveItem(registry, testLogger())

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productID", "ghost")

	req := withSession(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/ghost", nil), "sess-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	view := decodeCartView(t, resp.Body)
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(view.Lines))
	}
}

func TestCouponApplyLocalFallback(t *testing.T) {
	registry := newTestRegistry(t)
	catalogSvc := stubCatalog{product: &types.Product{ID: "p1", Name: "Brake disc", PriceCents: 200}}

	addReq := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"p1","quantity":1}`)), "sess-2")
	addResp := httptest.NewRecorder()
	CartAddItem(registry, catalogSvc, testLogger()).ServeHTTP(addResp, addReq)
	if addResp.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", addResp.Code)
	}

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{"code":"discount10"}`)), "sess-2")
	resp := httptest.NewRecorder()
	CouponApply(registry, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	view := decodeCartView(t, resp.Body)
	if !view.Coupon.Applied || view.Coupon.Code != "DISCOUNT10" {
		t.Fatalf("expected applied normalized coupon, got %+v", view.Coupon)
	}
	if view.DiscountCents != 20 {
		t.Fatalf("expected discount 20, got %d", view.DiscountCents)
	}
	if view.TotalCents != 200-20+300 {
		t.Fatalf("unexpected total %d", view.TotalCents)
	}
}

func TestCouponApplyUnknownCode(t *testing.T) {
	registry := newTestRegistry(t)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", strings.NewReader(`{"code":"BOGUS"}`)), "sess-3")
	resp := httptest.NewRecorder()
	CouponApply(registry, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func intToJSON(v int) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
