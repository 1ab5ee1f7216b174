package shopapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
)

// CartItem is a line as the shop reports it.
type CartItem struct {
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	Color          string `json:"color,omitempty"`
	Size           string `json:"size,omitempty"`
	Name           string `json:"name,omitempty"`
	Image          string `json:"image,omitempty"`
	UnitPriceCents int    `json:"unitPriceCents,omitempty"`
}

// Cart is the shop's view of the caller's cart.
type Cart struct {
	Items         []CartItem `json:"items"`
	DiscountCents int        `json:"discountCents,omitempty"`
}

// AddToCartRequest mirrors the shop's cart add payload.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

// UpdateCartItemRequest mirrors the shop's quantity update payload.
type UpdateCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
}

// GetCart fetches the caller's cart from the shop.
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart records an added line on the shop and returns its cart view.
func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*Cart, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	var cart Cart
	if err := c.do(ctx, http.MethodPost, "/cart/add", req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateCartItem changes a line's quantity on the shop.
func (c *Client) UpdateCartItem(ctx context.Context, req UpdateCartItemRequest) (*Cart, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	var cart Cart
	if err := c.do(ctx, http.MethodPut, "/cart/update", req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveFromCart deletes a line on the shop.
func (c *Client) RemoveFromCart(ctx context.Context, productID string) (*Cart, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	var cart Cart
	path := fmt.Sprintf("/cart/remove/%s", url.PathEscape(trimmed))
	if err := c.do(ctx, http.MethodDelete, path, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearCart empties the caller's cart on the shop.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/clear", nil, nil)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

// CouponResult is the shop's answer to a coupon application.
type CouponResult struct {
	DiscountCents int `json:"discount"`
}

// ApplyCoupon submits a coupon code and returns the granted discount.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (*CouponResult, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	var result CouponResult
	if err := c.do(ctx, http.MethodPost, "/cart/coupon", applyCouponRequest{Code: trimmed}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveCoupon clears any applied coupon on the shop.
func (c *Client) RemoveCoupon(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart/coupon", nil, nil)
}
