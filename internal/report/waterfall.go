package report

import (
	"github.com/shopspring/decimal"

	"github.com/profitlens/profitlens/internal/money"
	"github.com/profitlens/profitlens/internal/period"
)

// Monthly-equivalent expense totals convert to a daily rate through 12
// months over 365 days before bucket proration.
var (
	monthsPerYear = decimal.NewFromInt(12)
	daysPerYear   = decimal.NewFromInt(365)
)

// WaterfallContext carries the report-wide figures the per-bucket pipeline
// needs. Returns and ad spend have no per-order attribution in the feed, so
// both are distributed evenly across buckets; this is a documented
// approximation, not a per-order allocation.
type WaterfallContext struct {
	TotalReturns decimal.Decimal
	AdSpend      decimal.Decimal
	MonthlyOpex  decimal.Decimal
	BucketCount  int
	Granularity  period.Granularity

	// EvenOpex switches opex attribution from per-bucket day spans (time
	// buckets) to an even split of the whole range (dimension buckets, which
	// have no day span of their own). RangeDays is the inclusive range length.
	EvenOpex  bool
	RangeDays int
}

func (ctx WaterfallContext) share(total decimal.Decimal) decimal.Decimal {
	if ctx.BucketCount <= 0 || total.IsZero() {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(ctx.BucketCount)))
}

func (ctx WaterfallContext) opexShare(key string) decimal.Decimal {
	if ctx.MonthlyOpex.IsZero() {
		return decimal.Zero
	}
	daily := ctx.MonthlyOpex.Mul(monthsPerYear).Div(daysPerYear)
	if ctx.EvenOpex {
		return ctx.share(daily.Mul(decimal.NewFromInt(int64(ctx.RangeDays))))
	}
	days := decimal.NewFromInt(int64(period.DaySpan(key, ctx.Granularity)))
	return daily.Mul(days)
}

// ComputeRow applies the fixed-order deduction pipeline to one bucket:
//
//	gross revenue → net revenue → COGS → CM1 → fulfillment → CM2
//	→ ad spend → CM3 → operating expenses → net profit
//
// The pipeline never branches back; every derived currency figure is rounded
// to cents and every percent to one decimal only here, at emission.
func ComputeRow(key string, acc *Accumulator, cfg CostConfiguration, ctx WaterfallContext) ReportRow {
	gross := acc.GrossRevenue
	returns := ctx.share(ctx.TotalReturns)
	net := gross.Sub(acc.Discounts).Sub(returns).Add(acc.ShippingRevenue)

	cogs := gross.Sub(acc.Discounts).Mul(cfg.cogsPercent()).Div(hundred)
	cm1 := net.Sub(cogs)

	fulfillment := acc.ShippingCost.Add(acc.TransactionFees)
	cm2 := cm1.Sub(fulfillment)

	adShare := ctx.share(ctx.AdSpend)
	cm3 := cm2.Sub(adShare)

	opexShare := ctx.opexShare(key)
	netProfit := cm3.Sub(opexShare)

	label := acc.Label
	if label == "" {
		label = period.Label(key, ctx.Granularity)
	}

	return ReportRow{
		Key:   key,
		Label: label,

		OrderCount: acc.OrderCount,
		ItemCount:  acc.ItemCount,

		GrossRevenue:    money.Cents(gross),
		Discounts:       money.Cents(acc.Discounts),
		Returns:         money.Cents(returns),
		ShippingRevenue: money.Cents(acc.ShippingRevenue),
		NetRevenue:      money.Cents(net),

		COGS:            money.Cents(cogs),
		GrossProfit:     money.Cents(cm1),
		GrossProfitPct:  money.SafePct(cm1, net),
		ShippingCost:    money.Cents(acc.ShippingCost),
		TransactionFees: money.Cents(acc.TransactionFees),
		FulfillmentCost: money.Cents(fulfillment),
		CM2:             money.Cents(cm2),
		CM2Pct:          money.SafePct(cm2, net),
		AdSpend:         money.Cents(adShare),
		CM3:             money.Cents(cm3),
		CM3Pct:          money.SafePct(cm3, net),
		Opex:            money.Cents(opexShare),
		NetProfit:       money.Cents(netProfit),
		NetProfitPct:    money.SafePct(netProfit, net),

		ShippingCostSource: acc.ShippingSource(),
	}
}
