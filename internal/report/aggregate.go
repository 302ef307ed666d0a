package report

import (
	"github.com/shopspring/decimal"

	"github.com/profitlens/profitlens/internal/feed"
	"github.com/profitlens/profitlens/internal/period"
)

// Sentinel dimension value for orders the feed reports without a channel.
const DefaultChannel = "Online Store"

// Accumulator is the mutable running total for one (dimension, period) key.
// One exists per key for the duration of a single report computation and is
// discarded when the computation returns.
type Accumulator struct {
	GrossRevenue    decimal.Decimal
	Discounts       decimal.Decimal
	ShippingRevenue decimal.Decimal
	OrderCount      int
	ItemCount       int

	// Per-order resolved fulfillment inputs, accumulated at fold time so the
	// gateway match and the shipping cascade run once per order per key.
	TransactionFees decimal.Decimal
	ShippingCost    decimal.Decimal
	shippingSources map[CostSource]int

	// seen guards orderCount and the per-order figures: an order with several
	// qualifying line items contributes exactly once to each of them.
	seen map[string]struct{}

	// Label overrides the key in output rows (e.g. product title for a
	// product-id key). Last writer wins; feed data is consistent per key.
	Label string
}

func newAccumulator() *Accumulator {
	return &Accumulator{
		GrossRevenue:    decimal.Zero,
		Discounts:       decimal.Zero,
		ShippingRevenue: decimal.Zero,
		TransactionFees: decimal.Zero,
		ShippingCost:    decimal.Zero,
		shippingSources: make(map[CostSource]int),
		seen:            make(map[string]struct{}),
	}
}

// ShippingSource reports the highest-priority source that resolved any of the
// bucket's orders, for caller transparency on estimate quality.
func (a *Accumulator) ShippingSource() CostSource {
	for _, src := range []CostSource{SourceShopify, SourceCSV, SourceEstimate} {
		if a.shippingSources[src] > 0 {
			return src
		}
	}
	return SourceNone
}

// Aggregation folds normalized order records into keyed accumulators. A
// single report computation owns its Aggregation exclusively; nothing is
// shared across requests and nothing survives the call.
type Aggregation struct {
	buckets  map[string]*Accumulator
	shipping *ShippingResolver
	fees     *FeeResolver
}

// NewAggregation wires an empty accumulator map with the per-order cost
// resolvers derived from the merchant configuration.
func NewAggregation(cfg CostConfiguration) *Aggregation {
	return &Aggregation{
		buckets:  make(map[string]*Accumulator),
		shipping: NewShippingResolver(cfg),
		fees:     NewFeeResolver(cfg),
	}
}

// Seed ensures a zeroed accumulator exists for key so empty buckets appear in
// output with zero values instead of missing keys.
func (a *Aggregation) Seed(key string) {
	a.bucket(key)
}

// AddOrder folds an entire order into the bucket at key. Used by the
// unfiltered report paths that work on order-level totals.
func (a *Aggregation) AddOrder(key string, o feed.OrderRecord) {
	acc := a.bucket(key)
	acc.GrossRevenue = acc.GrossRevenue.Add(o.Subtotal).Add(o.TotalDiscounts)
	acc.Discounts = acc.Discounts.Add(o.TotalDiscounts)
	acc.ItemCount += totalQuantity(o)
	a.touchOrder(acc, o)
}

// AddLineItem folds one qualifying line item into the bucket at key,
// prorating the order discount to the line. Order-level figures (shipping
// revenue, order count, fulfillment costs) are added only on the first line
// of each order touching the key.
func (a *Aggregation) AddLineItem(key string, o feed.OrderRecord, li feed.LineItem) {
	acc := a.bucket(key)
	acc.GrossRevenue = acc.GrossRevenue.Add(li.OriginalTotal)
	acc.Discounts = acc.Discounts.Add(AllocateDiscount(li, o))
	acc.ItemCount += li.Quantity
	a.touchOrder(acc, o)
}

// touchOrder applies the once-per-order-per-key contributions.
func (a *Aggregation) touchOrder(acc *Accumulator, o feed.OrderRecord) {
	if _, ok := acc.seen[o.ID]; ok {
		return
	}
	acc.seen[o.ID] = struct{}{}
	acc.OrderCount++
	acc.ShippingRevenue = acc.ShippingRevenue.Add(o.TotalShippingPrice)

	resolved := a.shipping.Resolve(o)
	acc.ShippingCost = acc.ShippingCost.Add(resolved.Cost)
	acc.shippingSources[resolved.Source]++

	orderNet := o.Subtotal.Add(o.TotalShippingPrice)
	acc.TransactionFees = acc.TransactionFees.Add(a.fees.Fee(orderNet, o.Gateway()))
}

// SetLabel attaches a display label to the bucket at key.
func (a *Aggregation) SetLabel(key, label string) {
	a.bucket(key).Label = label
}

// Keys returns the bucket keys in natural sorted order. Accumulation order
// follows feed pagination order and is never exposed.
func (a *Aggregation) Keys(g period.Granularity) []string {
	keys := make([]string, 0, len(a.buckets))
	for k := range a.buckets {
		keys = append(keys, k)
	}
	period.SortKeys(keys, g)
	return keys
}

// Bucket returns the accumulator at key, or nil when the key never appeared.
func (a *Aggregation) Bucket(key string) *Accumulator {
	return a.buckets[key]
}

// Len reports the number of buckets, the divisor for evenly distributed
// returns and ad spend.
func (a *Aggregation) Len() int {
	return len(a.buckets)
}

func (a *Aggregation) bucket(key string) *Accumulator {
	acc, ok := a.buckets[key]
	if !ok {
		acc = newAccumulator()
		a.buckets[key] = acc
	}
	return acc
}
