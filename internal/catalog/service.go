package catalog

import (
	"context"
	"fmt"

	"github.com/avelichko/vitrina-storefront/pkg/logger"
	"github.com/avelichko/vitrina-storefront/pkg/shopapi"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// Service exposes catalog reads. The shop is authoritative; the local
// cache answers when the shop is unreachable.
type Service interface {
	ListProducts(ctx context.Context, filter shopapi.ProductFilter) ([]types.Product, error)
	GetProduct(ctx context.Context, id string) (*types.Product, error)
	SearchProducts(ctx context.Context, query string) ([]types.Product, error)
	ProductsByCategory(ctx context.Context, category string, limit int) ([]types.Product, error)
	NewArrivals(ctx context.Context, limit int) ([]types.Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]types.Product, error)
	SaleProducts(ctx context.Context, limit int) ([]types.Product, error)
}

// shopCatalog is the slice of the shop client the service depends on.
type shopCatalog interface {
	GetProducts(ctx context.Context, filter shopapi.ProductFilter) ([]types.Product, error)
	GetProductByID(ctx context.Context, id string) (*types.Product, error)
	SearchProducts(ctx context.Context, query string) ([]types.Product, error)
	GetProductsByCategory(ctx context.Context, category string, limit int) ([]types.Product, error)
	GetNewArrivals(ctx context.Context, limit int) ([]types.Product, error)
	GetFeaturedProducts(ctx context.Context, limit int) ([]types.Product, error)
	GetSaleProducts(ctx context.Context, limit int) ([]types.Product, error)
}

// localCache is the slice of the repository the service depends on.
type localCache interface {
	List(ctx context.Context, filter ListFilter) ([]types.Product, error)
	FindByID(ctx context.Context, id string) (*types.Product, error)
	Upsert(ctx context.Context, products []types.Product) error
}

type service struct {
	shop  shopCatalog
	cache localCache
	logg  *logger.Logger
}

// NewService wires the catalog service.
func NewService(shop shopCatalog, cache localCache, logg *logger.Logger) (Service, error) {
	if shop == nil {
		return nil, fmt.Errorf("shop client is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{shop: shop, cache: cache, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context, filter shopapi.ProductFilter) ([]types.Product, error) {
	products, err := s.shop.GetProducts(ctx, filter)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "shop catalog unavailable, serving cached products")
		return s.cache.List(ctx, ListFilter{Category: filter.Category, Limit: filter.Limit})
	}
	s.refreshCache(ctx, products)
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	product, err := s.shop.GetProductByID(ctx, id)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "shop catalog unavailable, serving cached product")
		return s.cache.FindByID(ctx, id)
	}
	s.refreshCache(ctx, []types.Product{*product})
	return product, nil
}

func (s *service) SearchProducts(ctx context.Context, query string) ([]types.Product, error) {
	products, err := s.shop.SearchProducts(ctx, query)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "shop search unavailable, searching cached products")
		return s.cache.List(ctx, ListFilter{Search: query})
	}
	s.refreshCache(ctx, products)
	return products, nil
}

func (s *service) ProductsByCategory(ctx context.Context, category string, limit int) ([]types.Product, error) {
	products, err := s.shop.GetProductsByCategory(ctx, category, limit)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "shop catalog unavailable, serving cached category")
		return s.cache.List(ctx, ListFilter{Category: category, Limit: limit})
	}
	s.refreshCache(ctx, products)
	return products, nil
}

func (s *service) NewArrivals(ctx context.Context, limit int) ([]types.Product, error) {
	products, err := s.shop.GetNewArrivals(ctx, limit)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "shop catalog unavailable, serving cached arrivals")
		return s.cache.List(ctx, ListFilter{IsNew: true, Limit: limit})
	}
	s.refreshCache(ctx, products)
	return products, nil
}

func (s *service) FeaturedProducts(ctx context.Context, limit int) ([]types.Product, error) {
	products, err := s.shop.GetFeaturedProducts(ctx, limit)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "shop catalog unavailable, serving cached products")
		return s.cache.List(ctx, ListFilter{Limit: limit})
	}
	s.refreshCache(ctx, products)
	return products, nil
}

func (s *service) SaleProducts(ctx context.Context, limit int) ([]types.Product, error) {
	products, err := s.shop.GetSaleProducts(ctx, limit)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "shop catalog unavailable, serving cached sale items")
		return s.cache.List(ctx, ListFilter{OnSale: true, Limit: limit})
	}
	s.refreshCache(ctx, products)
	return products, nil
}

// refreshCache best-effort mirrors shop responses into the local cache.
func (s *service) refreshCache(ctx context.Context, products []types.Product) {
	if len(products) == 0 {
		return
	}
	if err := s.cache.Upsert(ctx, products); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "failed to refresh local catalog cache")
	}
}
