package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avelichko/vitrina-storefront/api/responses"
	"github.com/avelichko/vitrina-storefront/api/validators"
	"github.com/avelichko/vitrina-storefront/internal/cart"
	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
)

// ShopOrders is the slice of the shop client the order handlers use.
type ShopOrders interface {
	CreateOrder(ctx context.Context, req shopapi.CreateOrderRequest) (*shopapi.Order, error)
	ListOrders(ctx context.Context) ([]shopapi.Order, error)
	GetOrder(ctx context.Context, id string) (*shopapi.Order, error)
	CancelOrder(ctx context.Context, id string) (*shopapi.Order, error)
}

type createOrderPayload struct {
	ShippingMethod string `json:"shipping_method" validate:"required,oneof=standard express pickup"`
	CouponCode     string `json:"coupon_code"`
	Address        string `json:"address" validate:"required"`
}

// OrdersCreate places an order from the current cart contents.
func OrdersCreate(shop ShopOrders, registry *cart.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if shop == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop client unavailable"))
			return
		}

		var payload createOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine, ok := sessionEngine(w, r, registry, logg)
		if !ok {
			return
		}

		snapshot := engine.Snapshot()
		if len(snapshot.Lines) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}

		req := shopapi.CreateOrderRequest{
			ShippingMethod: payload.ShippingMethod,
			CouponCode:     payload.CouponCode,
			Address:        payload.Address,
		}
		for _, line := range snapshot.Lines {
			req.Items = append(req.Items, shopapi.OrderItem{
				ProductID:      line.ProductID,
				Quantity:       line.Quantity,
				Color:          line.Variant.Color,
				Size:           line.Variant.Size,
				Name:           line.Name,
				UnitPriceCents: line.UnitPriceCents,
			})
		}

		order, err := shop.CreateOrder(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		engine.Clear(ctx)

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrdersList returns the shopper's order history.
func OrdersList(shop ShopOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if shop == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop client unavailable"))
			return
		}

		orders, err := shop.ListOrders(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// OrdersGet returns one order by ID.
func OrdersGet(shop ShopOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if shop == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop client unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "orderID"))
		if id == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		order, err := shop.GetOrder(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrdersCancel cancels an order that has not shipped.
func OrdersCancel(shop ShopOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if shop == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop client unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "orderID"))
		if id == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		order, err := shop.CancelOrder(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
