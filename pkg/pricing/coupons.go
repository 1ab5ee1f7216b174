package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/avelichko/vitrina-storefront/pkg/types"
)

// Known degraded-mode coupon codes. The shop API is the authority on
// coupons; this table is only consulted when it is unreachable.
const (
	CouponPercentOff   = "DISCOUNT10"
	CouponFreeShipping = "FREESHIP"
)

var percentOffRate = decimal.NewFromFloat(0.10)

// NormalizeCode canonicalizes user-entered coupon codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LocalDiscountCents resolves a coupon code against the local fallback
// table. The second return value reports whether the code is known.
//
// DISCOUNT10 takes 10% off the subtotal, rounded half away from zero.
// FREESHIP waives the shipping cost of the method selected at apply
// time; switching methods afterwards does not reprice the discount.
func LocalDiscountCents(code string, subtotalCents int, method types.ShippingMethod) (int, bool) {
	switch NormalizeCode(code) {
	case CouponPercentOff:
		discount := decimal.NewFromInt(int64(subtotalCents)).Mul(percentOffRate).Round(0)
		return int(discount.IntPart()), true
	case CouponFreeShipping:
		return ShippingCostCents(method), true
	}
	return 0, false
}
