package feed

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product identifies the catalog item a line item was sold from.
type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ProductType string   `json:"productType"`
	Vendor      string   `json:"vendor"`
	Tags        []string `json:"tags"`
}

// LineItem is one sold position of an order. OriginalTotal is the
// pre-discount amount; DiscountTotal is the line-level discount when the feed
// carries one, zero otherwise.
type LineItem struct {
	Quantity      int             `json:"quantity"`
	OriginalTotal decimal.Decimal `json:"originalTotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	SKU           string          `json:"sku"`
	VariantTitle  string          `json:"variantTitle"`
	Product       Product         `json:"product"`
}

// OrderRecord is an immutable snapshot of one paid order as returned by the
// feed. Subtotal is net of discounts, so subtotal + discounts reconstructs the
// gross merchandise value. Records are never mutated after decoding, only
// folded into accumulators.
type OrderRecord struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	CreatedAt          time.Time       `json:"createdAt"`
	Currency           string          `json:"currency"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TotalDiscounts     decimal.Decimal `json:"totalDiscounts"`
	TotalShippingPrice decimal.Decimal `json:"totalShippingPrice"`
	Gateways           []string        `json:"gateways"`
	Channel            string          `json:"channel"`
	CustomerID         string          `json:"customerId"`
	// ShippingLabelCost is the authoritative per-order label cost when the
	// merchant bought the label through the platform, zero otherwise.
	ShippingLabelCost decimal.Decimal `json:"shippingLabelCost"`
	LineItems         []LineItem      `json:"lineItems"`
}

// Gateway returns the first payment gateway name or empty when the feed
// omitted it.
func (o OrderRecord) Gateway() string {
	if len(o.Gateways) == 0 {
		return ""
	}
	return o.Gateways[0]
}

// RefundRecord references a refunded amount. ProcessedAt is the refund's own
// timestamp, which can fall outside the window of the order it belongs to.
type RefundRecord struct {
	OrderID     string          `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
	ProcessedAt time.Time       `json:"processedAt"`
}

// TotalRefunds sums refund amounts whose own timestamp falls inside the
// half-open window [from, until).
func TotalRefunds(refunds []RefundRecord, from, until time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, r := range refunds {
		if r.ProcessedAt.Before(from) || !r.ProcessedAt.Before(until) {
			continue
		}
		total = total.Add(r.Amount)
	}
	return total
}
