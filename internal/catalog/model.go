package catalog

import (
	"time"

	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// Product is the locally cached catalog row backing degraded reads.
type Product struct {
	ID         string   `gorm:"primaryKey"`
	Name       string   `gorm:"not null"`
	PriceCents int      `gorm:"not null"`
	Image      string
	Category   string   `gorm:"index"`
	Colors     []string `gorm:"serializer:json"`
	Sizes      []string `gorm:"serializer:json"`
	OnSale     bool
	IsNew      bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName keeps GORM aligned with the migration schema.
func (Product) TableName() string {
	return "products"
}

func (p Product) toDomain() types.Product {
	return types.Product{
		ID:         p.ID,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Image:      p.Image,
		Category:   p.Category,
		Colors:     p.Colors,
		Sizes:      p.Sizes,
		OnSale:     p.OnSale,
		IsNew:      p.IsNew,
	}
}

func fromDomain(p types.Product) Product {
	return Product{
		ID:         p.ID,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Image:      p.Image,
		Category:   p.Category,
		Colors:     p.Colors,
		Sizes:      p.Sizes,
		OnSale:     p.OnSale,
		IsNew:      p.IsNew,
	}
}
