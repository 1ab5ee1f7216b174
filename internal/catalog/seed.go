package catalog

import (
	"context"

	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// demoProducts mirrors the storefront's showcase inventory so a fresh
// dev environment has something to browse before the shop API is wired.
var demoProducts = []types.Product{
	{
		ID:         "p1",
		Name:       "Scania R420 turbocharger",
		PriceCents: 1850000,
		Image:      "https://images.pexels.com/photos/7565164/pexels-photo-7565164.jpeg",
		Category:   "engine",
		IsNew:      true,
	},
	{
		ID:         "p2",
		Name:       "DAF XF front brake disc",
		PriceCents: 450000,
		Image:      "https://images.pexels.com/photos/4022545/pexels-photo-4022545.jpeg",
		Category:   "brakes",
	},
	{
		ID:         "p3",
		Name:       "MAN TGX left headlight",
		PriceCents: 560000,
		Image:      "https://images.pexels.com/photos/1409968/pexels-photo-1409968.jpeg",
		Category:   "body-parts",
		OnSale:     true,
		IsNew:      true,
	},
	{
		ID:         "p4",
		Name:       "Volvo FH wiper blade set",
		PriceCents: 75000,
		Image:      "https://images.pexels.com/photos/12496786/pexels-photo-12496786.jpeg",
		Category:   "driver-accessories",
		OnSale:     true,
	},
	{
		ID:         "p5",
		Name:       "Mercedes Actros oil filter",
		PriceCents: 95000,
		Image:      "https://images.pexels.com/photos/4489765/pexels-photo-4489765.jpeg",
		Category:   "engine",
		IsNew:      true,
	},
}

// SeedDemo loads the demo inventory into the local cache.
func SeedDemo(ctx context.Context, repo *Repository) error {
	return repo.Upsert(ctx, demoProducts)
}
