package pricing

import (
	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// Shipping costs are fixed per method, in minor currency units.
var shippingCosts = map[types.ShippingMethod]int{
	types.ShippingStandard: 300,
	types.ShippingExpress:  600,
	types.ShippingPickup:   0,
}

// ShippingCostCents returns the flat cost for the given method. Unknown
// methods price as standard.
func ShippingCostCents(method types.ShippingMethod) int {
	if cost, ok := shippingCosts[method]; ok {
		return cost
	}
	return shippingCosts[types.ShippingStandard]
}

// SubtotalCents sums unit price times quantity across all lines.
func SubtotalCents(lines []types.CartLine) int {
	subtotal := 0
	for _, line := range lines {
		subtotal += line.UnitPriceCents * line.Quantity
	}
	return subtotal
}

// DiscountCents returns the active coupon discount, or zero when no
// coupon is applied.
func DiscountCents(coupon types.Coupon) int {
	if !coupon.Applied {
		return 0
	}
	return coupon.DiscountCents
}

// TotalCents derives the order total from cart state plus checkout
// selections. The result is subtotal + shipping - discount and is NOT
// floored at zero: a discount larger than the subtotal yields a negative
// total, matching the storefront's observed behavior.
func TotalCents(lines []types.CartLine, coupon types.Coupon, method types.ShippingMethod) int {
	return SubtotalCents(lines) + ShippingCostCents(method) - DiscountCents(coupon)
}
