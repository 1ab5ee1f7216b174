package shopapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
)

// OrderItem is a purchased line within an order.
type OrderItem struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name,omitempty"`
	Quantity       int    `json:"quantity"`
	Color          string `json:"color,omitempty"`
	Size           string `json:"size,omitempty"`
	UnitPriceCents int    `json:"unitPriceCents,omitempty"`
}

// Order is the shop's record of a placed order.
type Order struct {
	ID             string      `json:"id"`
	Status         string      `json:"status"`
	Items          []OrderItem `json:"items"`
	TotalCents     int         `json:"totalCents"`
	ShippingMethod string      `json:"shippingMethod,omitempty"`
	CouponCode     string      `json:"couponCode,omitempty"`
	CreatedAt      string      `json:"createdAt,omitempty"`
}

// CreateOrderRequest carries the checkout payload to the shop.
type CreateOrderRequest struct {
	Items          []OrderItem `json:"items"`
	ShippingMethod string      `json:"shippingMethod"`
	CouponCode     string      `json:"couponCode,omitempty"`
	Address        string      `json:"address,omitempty"`
}

// CreateOrder places an order on the shop.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the caller's order history.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches a single order.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ID is required")
	}
	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(trimmed), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder asks the shop to cancel a pending order.
func (c *Client) CancelOrder(ctx context.Context, id string) (*Order, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ID is required")
	}
	var order Order
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(trimmed)+"/cancel", nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
