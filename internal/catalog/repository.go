package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/avelichko/vitrina-storefront/pkg/errors"
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// Repository persists the local product cache.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListFilter narrows local catalog reads.
type ListFilter struct {
	Category string
	Search   string
	OnSale   bool
	IsNew    bool
	Limit    int
}

// List returns cached products matching the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]types.Product, error) {
	query := r.db.WithContext(ctx).Model(&Product{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if filter.OnSale {
		query = query.Where("on_sale = ?", true)
	}
	if filter.IsNew {
		query = query.Where("is_new = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []Product
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	products := make([]types.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

// FindByID loads a single cached product.
func (r *Repository) FindByID(ctx context.Context, id string) (*types.Product, error) {
	var row Product
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	product := row.toDomain()
	return &product, nil
}

// Upsert refreshes cached rows from the shop's view of the catalog.
func (r *Repository) Upsert(ctx context.Context, products []types.Product) error {
	if len(products) == 0 {
		return nil
	}

	rows := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.TrimSpace(p.ID) == "" {
			continue
		}
		rows = append(rows, fromDomain(p))
	}
	if len(rows) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}
