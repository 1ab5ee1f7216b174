package types

// Quantity bounds enforced on every cart line.
const (
	MinLineQuantity = 1
	MaxLineQuantity = 10
)

// ShippingMethod selects one of the fixed-cost delivery options offered
// at checkout.
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
	ShippingPickup   ShippingMethod = "pickup"
)

// IsValid reports whether the method is one of the known options.
func (m ShippingMethod) IsValid() bool {
	switch m {
	case ShippingStandard, ShippingExpress, ShippingPickup:
		return true
	}
	return false
}

// Variant distinguishes cart lines of the same product by presentation.
// The zero value means "no variant".
type Variant struct {
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
}

// LineKey identifies a unique cart line. Two lines with the same product
// but different variants are distinct.
type LineKey struct {
	ProductID string
	Color     string
	Size      string
}

// CartLine is one distinct purchasable unit in a cart. Price and display
// fields are snapshotted at add time so later product lookups failing or
// repricing never mutate an existing line.
type CartLine struct {
	ProductID      string  `json:"product_id"`
	Variant        Variant `json:"variant"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int     `json:"unit_price_cents"`
	Name           string  `json:"name"`
	Image          string  `json:"image,omitempty"`
}

// Key returns the merge key for the line.
func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Color: l.Variant.Color, Size: l.Variant.Size}
}

// Coupon carries the currently applied discount, if any.
// Applied implies Code is non-empty and DiscountCents >= 0.
type Coupon struct {
	Code          string `json:"code,omitempty"`
	DiscountCents int    `json:"discount_cents"`
	Applied       bool   `json:"applied"`
}

// CartSnapshot is the full serializable cart state: the shape persisted
// to the snapshot store and returned to API callers.
type CartSnapshot struct {
	Lines  []CartLine `json:"lines"`
	Coupon Coupon     `json:"coupon"`
}

// ItemCount sums quantities across all lines.
func (s CartSnapshot) ItemCount() int {
	count := 0
	for _, line := range s.Lines {
		count += line.Quantity
	}
	return count
}
