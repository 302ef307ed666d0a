package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FeeResolver matches payment gateway names against the configured fee table
// and prices per-order transaction fees.
type FeeResolver struct {
	settings FeeSettings
}

// NewFeeResolver builds a resolver from the merchant configuration, falling
// back to the default gateway table when none was supplied.
func NewFeeResolver(cfg CostConfiguration) *FeeResolver {
	return &FeeResolver{settings: cfg.fees()}
}

// Fee prices one order's transaction fee: orderNet × (rate+surcharge)/100
// plus the gateway's fixed fee applied once per order. An unresolvable
// gateway name falls back to the Shopify Payments rate instead of erroring.
func (r *FeeResolver) Fee(orderNet decimal.Decimal, gateway string) decimal.Decimal {
	entry := r.match(gateway)
	rate := entry.RatePct
	if r.surchargeApplies(entry) {
		rate = rate.Add(r.settings.ThirdPartySurchargePct)
	}
	return orderNet.Mul(rate).Div(hundred).Add(entry.FixedFee)
}

// match finds the configured gateway whose name and the order's gateway name
// contain each other case-insensitively ("shopify_payments" matches
// "Shopify Payments").
func (r *FeeResolver) match(gateway string) GatewayFee {
	needle := strings.ToLower(strings.TrimSpace(gateway))
	if needle != "" {
		for _, entry := range r.settings.Gateways {
			name := strings.ToLower(entry.Name)
			if strings.Contains(needle, name) || strings.Contains(name, needle) {
				return entry
			}
			// tolerate snake_cased feed names
			if strings.Contains(strings.ReplaceAll(needle, "_", " "), name) {
				return entry
			}
		}
	}
	return r.fallback()
}

func (r *FeeResolver) fallback() GatewayFee {
	for _, entry := range r.settings.Gateways {
		if strings.EqualFold(entry.Name, GatewayShopifyPayments) {
			return entry
		}
	}
	return GatewayFee{Name: GatewayShopifyPayments, RatePct: defaultGatewayRate, FixedFee: defaultGatewayFixedFee}
}

func (r *FeeResolver) surchargeApplies(entry GatewayFee) bool {
	if r.settings.SurchargeWaived {
		return false
	}
	return !strings.EqualFold(entry.Name, GatewayShopifyPayments)
}
