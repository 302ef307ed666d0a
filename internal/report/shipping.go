package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/profitlens/profitlens/internal/feed"
)

// CostSource tags where a resolved shipping cost came from so callers can see
// which orders ran on real label costs versus estimates.
type CostSource string

const (
	SourceShopify  CostSource = "shopify"
	SourceCSV      CostSource = "csv"
	SourceEstimate CostSource = "estimate"
	SourceNone     CostSource = "none"
)

// ResolvedCost pairs a per-order shipping cost with its source.
type ResolvedCost struct {
	Cost   decimal.Decimal
	Source CostSource
}

type shippingStrategy func(feed.OrderRecord) (ResolvedCost, bool)

// ShippingResolver resolves a per-order shipping cost through an ordered
// strategy chain: authoritative label cost, then uploaded override, then the
// configured estimate. First success wins.
type ShippingResolver struct {
	strategies []shippingStrategy
}

// NewShippingResolver builds the chain from the merchant configuration.
// Override keys are normalized by stripping a leading '#' so the uploaded
// list matches regardless of which side carries the prefix.
func NewShippingResolver(cfg CostConfiguration) *ShippingResolver {
	overrides := make(map[string]decimal.Decimal, len(cfg.ShippingOverrides))
	for _, o := range cfg.ShippingOverrides {
		overrides[normalizeOrderName(o.OrderName)] = o.Cost
	}
	settings := cfg.shipping()

	return &ShippingResolver{strategies: []shippingStrategy{
		func(o feed.OrderRecord) (ResolvedCost, bool) {
			if o.ShippingLabelCost.IsPositive() {
				return ResolvedCost{Cost: o.ShippingLabelCost, Source: SourceShopify}, true
			}
			return ResolvedCost{}, false
		},
		func(o feed.OrderRecord) (ResolvedCost, bool) {
			if cost, ok := overrides[normalizeOrderName(o.Name)]; ok {
				return ResolvedCost{Cost: cost, Source: SourceCSV}, true
			}
			return ResolvedCost{}, false
		},
		func(o feed.OrderRecord) (ResolvedCost, bool) {
			switch settings.Method {
			case ShippingMethodFlat:
				return ResolvedCost{Cost: settings.FlatRate, Source: SourceEstimate}, true
			case ShippingMethodPerItem:
				qty := decimal.NewFromInt(int64(totalQuantity(o)))
				return ResolvedCost{Cost: settings.PerItemRate.Mul(qty), Source: SourceEstimate}, true
			}
			return ResolvedCost{}, false
		},
	}}
}

// Resolve walks the chain and returns the first matching cost, or a zero cost
// tagged "none" when no strategy applies.
func (r *ShippingResolver) Resolve(o feed.OrderRecord) ResolvedCost {
	for _, strategy := range r.strategies {
		if resolved, ok := strategy(o); ok {
			return resolved
		}
	}
	return ResolvedCost{Cost: decimal.Zero, Source: SourceNone}
}

func normalizeOrderName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "#")
}

func totalQuantity(o feed.OrderRecord) int {
	qty := 0
	for _, li := range o.LineItems {
		qty += li.Quantity
	}
	return qty
}
