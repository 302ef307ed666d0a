package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Shipping estimate methods configurable by the merchant.
const (
	ShippingMethodFlat    = "flat"
	ShippingMethodPerItem = "perItem"
	ShippingMethodNone    = "none"
)

// Expense frequencies accepted on operating expense entries.
const (
	FrequencyOneTime   = "one_time"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnual    = "annual"
)

// Documented fallback assumptions applied when the merchant supplied no cost
// settings. Missing configuration never fails a report.
var (
	defaultCOGSPercent     = decimal.NewFromInt(40)
	defaultFlatShipping    = decimal.NewFromInt(5)
	defaultGatewayRate     = decimal.RequireFromString("2.9")
	defaultGatewayFixedFee = decimal.RequireFromString("0.30")
)

// GatewayShopifyPayments is the platform's own processor; it is both the
// fallback for unresolvable gateway names and exempt from the third-party
// surcharge.
const GatewayShopifyPayments = "Shopify Payments"

// ShippingSettings selects the estimate used when neither an authoritative
// label cost nor an uploaded override resolves an order's shipping cost.
type ShippingSettings struct {
	Method      string          `json:"method"`
	FlatRate    decimal.Decimal `json:"flatRate"`
	PerItemRate decimal.Decimal `json:"perItemRate"`
}

// GatewayFee is one row of the per-gateway transaction fee table.
type GatewayFee struct {
	Name     string          `json:"name"`
	RatePct  decimal.Decimal `json:"ratePct"`
	FixedFee decimal.Decimal `json:"fixedFee"`
}

// FeeSettings holds the transaction fee table and surcharge policy.
type FeeSettings struct {
	Gateways               []GatewayFee    `json:"gateways"`
	ThirdPartySurchargePct decimal.Decimal `json:"thirdPartySurchargePct"`
	// SurchargeWaived marks plan tiers exempt from the third-party surcharge.
	SurchargeWaived bool `json:"surchargeWaived"`
}

// OperatingExpense is one recurring or one-time expense entry.
type OperatingExpense struct {
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency"`
	StartDate *time.Time      `json:"startDate,omitempty"`
	EndDate   *time.Time      `json:"endDate,omitempty"`
}

// ShippingOverride maps an order name to a manually uploaded shipping cost.
type ShippingOverride struct {
	OrderName  string          `json:"orderName"`
	Cost       decimal.Decimal `json:"cost"`
	Source     string          `json:"source,omitempty"`
	UploadedAt time.Time       `json:"uploadedAt,omitempty"`
}

// CostConfiguration carries every merchant-set cost parameter consumed by the
// waterfall. It is supplied by the caller per request and read-only to the
// engine; nothing here is persisted. Nil or zero-value sections fall back to
// the documented defaults.
type CostConfiguration struct {
	COGSPercent       *decimal.Decimal   `json:"cogsPercent,omitempty"`
	Shipping          *ShippingSettings  `json:"shipping,omitempty"`
	Fees              *FeeSettings       `json:"fees,omitempty"`
	AdSpend           decimal.Decimal    `json:"adSpend"`
	OperatingExpenses []OperatingExpense `json:"operatingExpenses,omitempty"`
	ShippingOverrides []ShippingOverride `json:"shippingOverrides,omitempty"`
}

func (c CostConfiguration) cogsPercent() decimal.Decimal {
	if c.COGSPercent == nil {
		return defaultCOGSPercent
	}
	return *c.COGSPercent
}

func (c CostConfiguration) shipping() ShippingSettings {
	if c.Shipping == nil {
		return ShippingSettings{Method: ShippingMethodFlat, FlatRate: defaultFlatShipping}
	}
	return *c.Shipping
}

func (c CostConfiguration) fees() FeeSettings {
	if c.Fees == nil || len(c.Fees.Gateways) == 0 {
		fees := FeeSettings{Gateways: defaultGateways()}
		if c.Fees != nil {
			fees.ThirdPartySurchargePct = c.Fees.ThirdPartySurchargePct
			fees.SurchargeWaived = c.Fees.SurchargeWaived
		}
		return fees
	}
	return *c.Fees
}

func defaultGateways() []GatewayFee {
	return []GatewayFee{
		{Name: GatewayShopifyPayments, RatePct: defaultGatewayRate, FixedFee: defaultGatewayFixedFee},
		{Name: "PayPal", RatePct: defaultGatewayRate, FixedFee: defaultGatewayFixedFee},
		{Name: "Stripe", RatePct: defaultGatewayRate, FixedFee: defaultGatewayFixedFee},
	}
}

// MonthlyOpex normalizes the expense list to a monthly-equivalent total for
// entries active anywhere inside [from, to]. One-time and monthly amounts
// count as-is, quarterly divides by three, annual by twelve.
func MonthlyOpex(expenses []OperatingExpense, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.StartDate != nil && e.StartDate.After(to) {
			continue
		}
		if e.EndDate != nil && e.EndDate.Before(from) {
			continue
		}
		switch strings.ToLower(e.Frequency) {
		case FrequencyQuarterly:
			total = total.Add(e.Amount.Div(decimal.NewFromInt(3)))
		case FrequencyAnnual:
			total = total.Add(e.Amount.Div(decimal.NewFromInt(12)))
		default:
			// one-time and monthly both land at face value on a monthly basis
			total = total.Add(e.Amount)
		}
	}
	return total
}
