package shopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// productPayload tolerates the field aliases the shop has shipped over
// time and normalizes them into the canonical product shape.
type productPayload struct {
	ID       string
	Name     string
	Price    int
	Image    string
	Category string
	Colors   []string
	Sizes    []string
	OnSale   bool
	IsNew    bool
}

func (p *productPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID              string   `json:"id"`
		MongoID         string   `json:"_id"`
		Name            string   `json:"name"`
		Title           string   `json:"title"`
		Price           float64  `json:"price"`
		UnitPrice       float64  `json:"unitPrice"`
		PriceCents      int      `json:"priceCents"`
		Image           string   `json:"image"`
		ImageURL        string   `json:"imageUrl"`
		Category        string   `json:"category"`
		Colors          []string `json:"colors"`
		AvailableColors []string `json:"availableColors"`
		Sizes           []string `json:"sizes"`
		AvailableSizes  []string `json:"availableSizes"`
		OnSale          bool     `json:"onSale"`
		Sale            bool     `json:"sale"`
		IsNew           bool     `json:"isNew"`
		New             bool     `json:"new"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.ID = firstNonEmpty(raw.ID, raw.MongoID)
	p.Name = firstNonEmpty(raw.Name, raw.Title)
	p.Image = firstNonEmpty(raw.Image, raw.ImageURL)
	p.Category = raw.Category
	p.OnSale = raw.OnSale || raw.Sale
	p.IsNew = raw.IsNew || raw.New

	// Prices arrive either as major units or as cents.
	switch {
	case raw.PriceCents > 0:
		p.Price = raw.PriceCents
	case raw.Price > 0:
		p.Price = int(math.Round(raw.Price * 100))
	case raw.UnitPrice > 0:
		p.Price = int(math.Round(raw.UnitPrice * 100))
	}

	p.Colors = raw.Colors
	if len(p.Colors) == 0 {
		p.Colors = raw.AvailableColors
	}
	p.Sizes = raw.Sizes
	if len(p.Sizes) == 0 {
		p.Sizes = raw.AvailableSizes
	}
	return nil
}

func (p productPayload) toProduct() types.Product {
	return types.Product{
		ID:         p.ID,
		Name:       p.Name,
		PriceCents: p.Price,
		Image:      p.Image,
		Category:   p.Category,
		Colors:     p.Colors,
		Sizes:      p.Sizes,
		OnSale:     p.OnSale,
		IsNew:      p.IsNew,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func toProducts(payloads []productPayload) []types.Product {
	products := make([]types.Product, 0, len(payloads))
	for _, p := range payloads {
		products = append(products, p.toProduct())
	}
	return products
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Limit    int
}

func (f ProductFilter) query() string {
	values := url.Values{}
	if f.Category != "" {
		values.Set("category", f.Category)
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// GetProducts lists products, optionally filtered.
func (c *Client) GetProducts(ctx context.Context, filter ProductFilter) ([]types.Product, error) {
	var payloads []productPayload
	if err := c.do(ctx, http.MethodGet, "/products"+filter.query(), nil, &payloads); err != nil {
		return nil, err
	}
	return toProducts(payloads), nil
}

// GetProductByID fetches a single product.
func (c *Client) GetProductByID(ctx context.Context, id string) (*types.Product, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}
	var payload productPayload
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(trimmed), nil, &payload); err != nil {
		return nil, err
	}
	product := payload.toProduct()
	return &product, nil
}

// SearchProducts runs a free-text product search.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]types.Product, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	values := url.Values{}
	values.Set("query", trimmed)
	var payloads []productPayload
	if err := c.do(ctx, http.MethodGet, "/products/search?"+values.Encode(), nil, &payloads); err != nil {
		return nil, err
	}
	return toProducts(payloads), nil
}

// GetProductsByCategory lists products in the named category.
func (c *Client) GetProductsByCategory(ctx context.Context, category string, limit int) ([]types.Product, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	path := "/products/category/" + url.PathEscape(trimmed)
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var payloads []productPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &payloads); err != nil {
		return nil, err
	}
	return toProducts(payloads), nil
}

// GetNewArrivals lists recently added products.
func (c *Client) GetNewArrivals(ctx context.Context, limit int) ([]types.Product, error) {
	return c.listProductsPath(ctx, "/products/new", limit)
}

// GetFeaturedProducts lists promoted products.
func (c *Client) GetFeaturedProducts(ctx context.Context, limit int) ([]types.Product, error) {
	return c.listProductsPath(ctx, "/products/featured", limit)
}

// GetSaleProducts lists discounted products.
func (c *Client) GetSaleProducts(ctx context.Context, limit int) ([]types.Product, error) {
	return c.listProductsPath(ctx, "/products/sale", limit)
}

func (c *Client) listProductsPath(ctx context.Context, path string, limit int) ([]types.Product, error) {
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var payloads []productPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &payloads); err != nil {
		return nil, err
	}
	return toProducts(payloads), nil
}
