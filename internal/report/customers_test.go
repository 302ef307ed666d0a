package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitlens/profitlens/internal/feed"
	"github.com/profitlens/profitlens/internal/period"
)

func TestLTVBucketTrimming(t *testing.T) {
	// spends 10, 30, 1500: first four buckets always shown, the $1,000+
	// bucket shown, and the empty $200-500 / $500-1,000 buckets kept so the
	// histogram has no hidden gap before a populated bucket.
	orders := []feed.OrderRecord{
		{ID: "o1", CustomerID: "c1", Subtotal: d("10"), CreatedAt: time.Now()},
		{ID: "o2", CustomerID: "c2", Subtotal: d("30"), CreatedAt: time.Now()},
		{ID: "o3", CustomerID: "c3", Subtotal: d("1500"), CreatedAt: time.Now()},
	}

	insights := AnalyzeCustomers(orders, period.Monthly)
	require.Len(t, insights.LTVBuckets, 7)

	labels := make([]string, 0, len(insights.LTVBuckets))
	counts := make([]int, 0, len(insights.LTVBuckets))
	for _, b := range insights.LTVBuckets {
		labels = append(labels, b.Label)
		counts = append(counts, b.Count)
	}
	assert.Equal(t, []string{"$0-$25", "$25-$50", "$50-$100", "$100-$200", "$200-$500", "$500-$1,000", "$1,000+"}, labels)
	assert.Equal(t, []int{1, 1, 0, 0, 0, 0, 1}, counts)
	assert.True(t, insights.Approximate)
}

func TestLTVBucketsTrailingEmptiesTrimmed(t *testing.T) {
	orders := []feed.OrderRecord{
		{ID: "o1", CustomerID: "c1", Subtotal: d("10"), CreatedAt: time.Now()},
	}
	insights := AnalyzeCustomers(orders, period.Monthly)
	// only the always-shown first four remain
	require.Len(t, insights.LTVBuckets, 4)
	assert.Equal(t, 1, insights.LTVBuckets[0].Count)
}

func TestLTVSumsSpendAcrossOrders(t *testing.T) {
	orders := []feed.OrderRecord{
		{ID: "o1", CustomerID: "c1", Subtotal: d("60"), CreatedAt: time.Now()},
		{ID: "o2", CustomerID: "c1", Subtotal: d("60"), CreatedAt: time.Now()},
	}
	insights := AnalyzeCustomers(orders, period.Monthly)
	// 120 lands in the $100-200 bucket, not two entries in $50-100
	assert.Equal(t, 0, insights.LTVBuckets[2].Count)
	assert.Equal(t, 1, insights.LTVBuckets[3].Count)
}

func TestGuestOrdersAreSingletonCustomers(t *testing.T) {
	orders := []feed.OrderRecord{
		{ID: "o1", Subtotal: d("10"), CreatedAt: time.Now()},
		{ID: "o2", Subtotal: d("10"), CreatedAt: time.Now()},
	}
	insights := AnalyzeCustomers(orders, period.Monthly)
	// two guests, never merged
	assert.Equal(t, 2, insights.LTVBuckets[0].Count)
}

func TestAcquisitionFirstOrderPerCustomer(t *testing.T) {
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	orders := []feed.OrderRecord{
		// arrival order deliberately later-first: earliest by date wins
		{ID: "o2", CustomerID: "c1", Subtotal: d("50"), TotalDiscounts: d("2"), CreatedAt: feb},
		{ID: "o1", CustomerID: "c1", Subtotal: d("40"), TotalDiscounts: d("8"), CreatedAt: jan},
		{ID: "o3", CustomerID: "c2", Subtotal: d("30"), TotalDiscounts: d("4"), CreatedAt: feb},
	}

	insights := AnalyzeCustomers(orders, period.Monthly)
	require.Len(t, insights.Acquisition, 2)

	jan24 := insights.Acquisition[0]
	assert.Equal(t, "2024-01", jan24.Period)
	assert.Equal(t, 1, jan24.NewBuyers)
	assert.Equal(t, 8.0, jan24.FirstOrderDiscounts, "first order's discount, not the later one")
	assert.Equal(t, 8.0, jan24.AvgDiscountPerBuyer)

	feb24 := insights.Acquisition[1]
	assert.Equal(t, "2024-02", feb24.Period)
	assert.Equal(t, 1, feb24.NewBuyers, "c1's second order is not a new buyer")
	assert.Equal(t, 4.0, feb24.AvgDiscountPerBuyer)
}
