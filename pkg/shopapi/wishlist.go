package shopapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

type wishlistAddRequest struct {
	ProductID string `json:"productId"`
}

// GetWishlist lists the caller's saved products.
func (c *Client) GetWishlist(ctx context.Context) ([]types.Product, error) {
	var payloads []productPayload
	if err := c.do(ctx, http.MethodGet, "/wishlist", nil, &payloads); err != nil {
		return nil, err
	}
	return toProducts(payloads), nil
}

// AddToWishlist saves a product for later.
func (c *Client) AddToWishlist(ctx context.Context, productID string) error {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	return c.do(ctx, http.MethodPost, "/wishlist/add", wishlistAddRequest{ProductID: trimmed}, nil)
}

// RemoveFromWishlist drops a saved product.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	return c.do(ctx, http.MethodDelete, "/wishlist/remove/"+url.PathEscape(trimmed), nil, nil)
}

// InWishlist reports whether a product is saved.
func (c *Client) InWishlist(ctx context.Context, productID string) (bool, error) {
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	var resp struct {
		InWishlist bool `json:"inWishlist"`
	}
	if err := c.do(ctx, http.MethodGet, "/wishlist/check/"+url.PathEscape(trimmed), nil, &resp); err != nil {
		return false, err
	}
	return resp.InWishlist, nil
}
