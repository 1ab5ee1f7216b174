package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avelichko/vitrina-storefront/api/middleware"
	"github.com/avelichko/vitrina-storefront/api/responses"
	"github.com/avelichko/vitrina-storefront/api/validators"
	"github.com/avelichko/vitrina-storefront/internal/cart"
	"github.com/avelichko/vitrina-storefront/internal/catalog"
	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/pricing"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

type cartItemPayload struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

type applyCouponPayload struct {
	Code string `json:"code" validate:"required"`
}

type cartView struct {
	Lines         []types.CartLine     `json:"lines"`
	Coupon        types.Coupon         `json:"coupon"`
	ItemCount     int                  `json:"item_count"`
	Shipping      types.ShippingMethod `json:"shipping"`
	SubtotalCents int                  `json:"subtotal_cents"`
	ShippingCents int                  `json:"shipping_cents"`
	DiscountCents int                  `json:"discount_cents"`
	TotalCents    int                  `json:"total_cents"`
}

func newCartView(snapshot types.CartSnapshot, method types.ShippingMethod) cartView {
	return cartView{
		Lines:         snapshot.Lines,
		Coupon:        snapshot.Coupon,
		ItemCount:     snapshot.ItemCount(),
		Shipping:      method,
		SubtotalCents: pricing.SubtotalCents(snapshot.Lines),
		ShippingCents: pricing.ShippingCostCents(method),
		DiscountCents: pricing.DiscountCents(snapshot.Coupon),
		TotalCents:    pricing.TotalCents(snapshot.Lines, snapshot.Coupon, method),
	}
}

func sessionEngine(w http.ResponseWriter, r *http.Request, registry *cart.Registry, logg *logger.Logger) (*cart.Engine, bool) {
	ctx := r.Context()
	if registry == nil {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
		return nil, false
	}

	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session context missing"))
		return nil, false
	}

	engine, err := registry.Engine(ctx, sessionID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return nil, false
	}
	return engine, true
}

// CartGet returns the session's cart with totals priced for the chosen
// shipping method.
func CartGet(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		method, err := validators.ShippingParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, ok := sessionEngine(w, r, registry, logg)
		if !ok {
			return
		}

		responses.WriteSuccess(w, newCartView(engine.Snapshot(), method))
	}
}

// CartAddItem resolves the product and merges it into the cart. The
// merged quantity clamps silently at the per-line maximum.
func CartAddItem(registry *cart.Registry, products catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if products == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		var payload cartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method, err := validators.ShippingParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := products.GetProduct(ctx, payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, ok := sessionEngine(w, r, registry, logg)
		if !ok {
			return
		}

		snapshot, err := engine.AddItem(ctx, *product, payload.Quantity, types.Variant{Color: payload.Color, Size: payload.Size})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(snapshot, method))
	}
}

// CartUpdateItem replaces a line's quantity. Out-of-range values are
// rejected without touching the cart.
func CartUpdateItem(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload cartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method, err := validators.ShippingParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, ok := sessionEngine(w, r, registry, logg)
		if !ok {
			return
		}

		snapshot, err := engine.UpdateQuantity(ctx, payload.ProductID, payload.Quantity, types.Variant{Color: payload.Color, Size: payload.Size})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(snapshot, method))
	}
}

// CartRemoveItem drops the matching line. Removing an absent line is a
// no-op that still returns the current cart.
func CartRemoveItem(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID := strings.TrimSpace(chi.URLParam(r, "productID"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		method, err := validators.ShippingParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, ok := sessionEngine(w, r, registry, logg)
		if !ok {
			return
		}

		variant := types.Variant{
			Color: strings.TrimSpace(r.URL.Query().Get("color")),
			Size:  strings.TrimSpace(r.URL.Query().Get("size")),
		}

		responses.WriteSuccess(w, newCartView(engine.RemoveItem(ctx, productID, variant), method))
	}
}

// CartClear empties the cart and resets any applied coupon.
func CartClear(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		method, err := validators.ShippingParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, ok := sessionEngine(w, r, registry, logg)
		if !ok {
			return
		}

		responses.WriteSuccess(w, newCartView(engine.Clear(ctx), method))
	}
}

// CouponApply validates the code against the shop, falling back to the
// built-in coupon table when the shop is unreachable.
func CouponApply(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload applyCouponPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method, err := validators.ShippingParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, ok := sessionEngine(w, r, registry, logg)
		if !ok {
			return
		}

		snapshot, err := engine.ApplyCoupon(ctx, payload.Code, method)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(snapshot, method))
	}
}

// CouponRemove resets the applied coupon.
func CouponRemove(registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		method, err := validators.ShippingParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, ok := sessionEngine(w, r, registry, logg)
		if !ok {
			return
		}

		responses.WriteSuccess(w, newCartView(engine.RemoveCoupon(ctx), method))
	}
}
