package report

import (
	"github.com/shopspring/decimal"

	"github.com/profitlens/profitlens/internal/feed"
)

// AllocateDiscount returns the discount attributable to one line item.
//
// A line-level discount is used verbatim when present. Otherwise an
// order-level discount is allocated: a single-line order takes the whole
// discount, a multi-line order takes a share proportional to the item's share
// of the gross (pre-discount) merchandise value, i.e.
// orderDiscount × original / (subtotal + discount).
//
// Only the per-line-item report paths call this; the unfiltered paths work on
// order-level totals directly, so a discount is never counted twice.
func AllocateDiscount(li feed.LineItem, o feed.OrderRecord) decimal.Decimal {
	if !li.DiscountTotal.IsZero() {
		return li.DiscountTotal
	}
	if o.TotalDiscounts.IsZero() || o.Subtotal.IsZero() {
		// zero subtotal with a nonzero discount: nothing to prorate against
		return decimal.Zero
	}
	if len(o.LineItems) == 1 {
		return o.TotalDiscounts
	}
	gross := o.Subtotal.Add(o.TotalDiscounts)
	return o.TotalDiscounts.Mul(li.OriginalTotal).Div(gross)
}
