package report

import (
	"github.com/shopspring/decimal"

	"github.com/profitlens/profitlens/internal/feed"
	"github.com/profitlens/profitlens/internal/money"
	"github.com/profitlens/profitlens/internal/period"
)

// ltvBounds are the fixed lifetime-spend histogram edges in whole dollars.
// The final bucket is open-ended.
var ltvBounds = []int64{0, 25, 50, 100, 200, 500, 1000}

// minLTVBuckets is how many low buckets are always reported even when empty.
const minLTVBuckets = 4

// LTVBucket is one bar of the lifetime-spend histogram.
type LTVBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
	Count int     `json:"count"`
}

// AcquisitionPoint reports new buyers for one period. AvgDiscountPerBuyer is
// the average discount on those buyers' first orders, a proxy for customer
// acquisition cost.
type AcquisitionPoint struct {
	Period              string  `json:"period"`
	NewBuyers           int     `json:"newBuyers"`
	FirstOrderDiscounts float64 `json:"firstOrderDiscounts"`
	AvgDiscountPerBuyer float64 `json:"avgDiscountPerBuyer"`
}

// CustomerInsights bundles the customer-level analyses derived from the same
// fetched order set the revenue reports use.
type CustomerInsights struct {
	LTVBuckets  []LTVBucket        `json:"ltvBuckets"`
	Acquisition []AcquisitionPoint `json:"acquisitionByPeriod"`
	// Approximate flags that the CAC figure is discount-based, not a true
	// acquisition cost.
	Approximate bool `json:"approximate"`
}

// AnalyzeCustomers derives lifetime-spend buckets and per-period new-buyer
// metrics. Guest orders are singleton customers keyed by order id and are
// never merged with each other or with identified customers.
func AnalyzeCustomers(orders []feed.OrderRecord, g period.Granularity) CustomerInsights {
	type customer struct {
		spend    decimal.Decimal
		first    feed.OrderRecord
		hasFirst bool
	}
	customers := make(map[string]*customer)

	for _, o := range orders {
		key := o.CustomerID
		if key == "" {
			key = "guest:" + o.ID
		}
		c, ok := customers[key]
		if !ok {
			c = &customer{spend: decimal.Zero}
			customers[key] = c
		}
		c.spend = c.spend.Add(o.Subtotal).Add(o.TotalShippingPrice)
		// earliest order by date; ties keep arrival order
		if !c.hasFirst || o.CreatedAt.Before(c.first.CreatedAt) {
			c.first = o
			c.hasFirst = true
		}
	}

	counts := make([]int, len(ltvBounds))
	byPeriod := make(map[string]*acqEntry)

	for _, c := range customers {
		counts[ltvBucketIndex(c.spend)]++

		key := period.Key(c.first.CreatedAt, g)
		a, ok := byPeriod[key]
		if !ok {
			a = &acqEntry{discounts: decimal.Zero}
			byPeriod[key] = a
		}
		a.buyers++
		a.discounts = a.discounts.Add(c.first.TotalDiscounts)
	}

	return CustomerInsights{
		LTVBuckets:  buildLTVBuckets(counts),
		Acquisition: buildAcquisition(byPeriod, g),
		Approximate: true,
	}
}

func ltvBucketIndex(spend decimal.Decimal) int {
	for i := len(ltvBounds) - 1; i > 0; i-- {
		if spend.GreaterThanOrEqual(decimal.NewFromInt(ltvBounds[i])) {
			return i
		}
	}
	return 0
}

// buildLTVBuckets renders the histogram, always keeping the first four
// buckets and trimming trailing empties. An empty bucket below a populated
// one is kept so range coverage stays monotonic with no hidden gaps.
func buildLTVBuckets(counts []int) []LTVBucket {
	last := minLTVBuckets - 1
	for i, n := range counts {
		if n > 0 && i > last {
			last = i
		}
	}
	buckets := make([]LTVBucket, 0, last+1)
	for i := 0; i <= last; i++ {
		b := LTVBucket{Min: float64(ltvBounds[i]), Count: counts[i]}
		if i == len(ltvBounds)-1 {
			b.Label = money.FormatAmount(ltvBounds[i]) + "+"
		} else {
			b.Max = float64(ltvBounds[i+1])
			b.Label = money.FormatAmount(ltvBounds[i]) + "-" + money.FormatAmount(ltvBounds[i+1])
		}
		buckets = append(buckets, b)
	}
	return buckets
}

type acqEntry struct {
	buyers    int
	discounts decimal.Decimal
}

func buildAcquisition(byPeriod map[string]*acqEntry, g period.Granularity) []AcquisitionPoint {
	keys := make([]string, 0, len(byPeriod))
	for k := range byPeriod {
		keys = append(keys, k)
	}
	period.SortKeys(keys, g)

	points := make([]AcquisitionPoint, 0, len(keys))
	for _, k := range keys {
		a := byPeriod[k]
		avg := decimal.Zero
		if a.buyers > 0 {
			avg = a.discounts.Div(decimal.NewFromInt(int64(a.buyers)))
		}
		points = append(points, AcquisitionPoint{
			Period:              k,
			NewBuyers:           a.buyers,
			FirstOrderDiscounts: money.Cents(a.discounts),
			AvgDiscountPerBuyer: money.Cents(avg),
		})
	}
	return points
}
