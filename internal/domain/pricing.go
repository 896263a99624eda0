package domain

import (
	"strconv"
	"strings"
)

// Pricing constants. Tax applies to the subtotal only, never to shipping.
const (
	// TaxRateBasisPoints is the flat sales tax rate (8%).
	TaxRateBasisPoints = 800
	// CouponCode is the only accepted coupon; matching is trimmed and
	// case-insensitive.
	CouponCode = "SAVE10"
	// CouponRateBasisPoints is the coupon discount off the subtotal (10%).
	CouponRateBasisPoints = 1000
)

// LineItem is a priced entry in the order being checked out.
// Price is in integer minor currency units (cents).
type LineItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// ShippingOption is a selectable delivery method. Price 0 renders as "Free".
type ShippingOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Price int64  `json:"price"`
}

// Quote is the result of a pricing recompute. All amounts are in integer
// minor units; arithmetic never leaves the integer domain.
type Quote struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

// CouponApplies reports whether the given code earns the coupon discount.
func CouponApplies(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), CouponCode)
}

// ComputeQuote derives the order totals from the current selections.
// The computation order is fixed: subtotal, tax on subtotal, discount on
// subtotal, then total = subtotal + shipping + tax - discount. Percentages
// round half-up to the nearest minor unit.
func ComputeQuote(items []LineItem, shipping int64, coupon string) Quote {
	var subtotal int64
	for _, item := range items {
		subtotal += item.Price
	}

	tax := percentOf(subtotal, TaxRateBasisPoints)

	var discount int64
	if CouponApplies(coupon) {
		discount = percentOf(subtotal, CouponRateBasisPoints)
	}

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal + shipping + tax - discount,
	}
}

// percentOf applies a basis-point rate with round-half-up semantics.
func percentOf(amount int64, basisPoints int64) int64 {
	return (amount*basisPoints + 5000) / 10000
}

// FormatCents renders a minor-unit amount as a USD display string, e.g.
// 123456 -> "$1,234.56". Display formatting only; arithmetic stays integer.
func FormatCents(cents int64) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}

	dollars := cents / 100
	remainder := cents % 100

	digits := strconv.FormatInt(dollars, 10)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	b.WriteByte('.')
	if remainder < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(remainder, 10))
	return b.String()
}
