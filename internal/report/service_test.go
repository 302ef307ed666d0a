package report

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profitlens/profitlens/internal/feed"
	"github.com/profitlens/profitlens/internal/period"
)

type stubFeed struct {
	orders     []feed.OrderRecord
	prevOrders []feed.OrderRecord
	refunds    []feed.RefundRecord
	err        error
	fetches    atomic.Int32
}

func (s *stubFeed) FetchOrders(_ context.Context, from, _ time.Time, opts feed.FetchOptions) ([]feed.OrderRecord, error) {
	s.fetches.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	source := s.orders
	if from.Year() < 2024 {
		source = s.prevOrders
	}
	if opts.Filter == nil {
		return source, nil
	}
	var out []feed.OrderRecord
	for _, o := range source {
		if opts.Filter(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubFeed) FetchRefunds(context.Context, time.Time, time.Time) ([]feed.RefundRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.refunds, nil
}

func mar(day int) time.Time {
	return time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)
}

func sampleOrders() []feed.OrderRecord {
	return []feed.OrderRecord{
		{
			ID: "o1", Name: "#1001", CreatedAt: mar(1), Currency: "EUR", CustomerID: "c1",
			Subtotal: d("100"), TotalDiscounts: d("10"), TotalShippingPrice: d("5"),
			Gateways: []string{"shopify_payments"}, Channel: "Online Store",
			LineItems: []feed.LineItem{
				{Quantity: 1, OriginalTotal: d("110"), SKU: "TEE-S", Product: feed.Product{ID: "p1", Title: "Tee", ProductType: "Shirt", Vendor: "Acme", Tags: []string{"summer"}}},
			},
		},
		{
			ID: "o2", Name: "#1002", CreatedAt: mar(3), Currency: "EUR",
			Subtotal: d("50"), TotalShippingPrice: d("5"),
			Gateways: []string{"paypal"}, Channel: "POS",
			LineItems: []feed.LineItem{
				{Quantity: 2, OriginalTotal: d("50"), SKU: "MUG-1", Product: feed.Product{ID: "p2", Title: "Mug", ProductType: "Drinkware", Vendor: "Acme"}},
			},
		},
	}
}

func TestRunDashboard(t *testing.T) {
	fd := &stubFeed{orders: sampleOrders()}
	svc := NewService(fd, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type: TypeDashboard,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, period.Daily, res.Granularity)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "2024-03-01", res.Rows[0].Key)
	assert.Equal(t, "2024-03-03", res.Rows[1].Key)
	assert.Equal(t, 2, res.Totals.OrderCount)
	require.NotNil(t, res.Customers)
	assert.True(t, res.Customers.Approximate)
}

func TestRunEmptyRangeIsValidNotError(t *testing.T) {
	svc := NewService(&stubFeed{}, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type: TypePL,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, 0, res.Totals.OrderCount)
}

func TestRunFeedFailureIsFatal(t *testing.T) {
	svc := NewService(&stubFeed{err: errors.New("boom")}, nil, nil)

	_, err := svc.Run(context.Background(), Request{
		Type: TypeDashboard,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFeed)
}

func TestRunRejectsUnknownType(t *testing.T) {
	svc := NewService(&stubFeed{}, nil, nil)

	_, err := svc.Run(context.Background(), Request{
		Type: "profitByMoonPhase",
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRunRejectsUnknownGranularity(t *testing.T) {
	svc := NewService(&stubFeed{orders: sampleOrders()}, nil, nil)

	_, err := svc.Run(context.Background(), Request{
		Type:        TypePL,
		From:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		Granularity: "hourly",
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "hourly")
}

func TestRunComparisonWindow(t *testing.T) {
	fd := &stubFeed{
		orders:     sampleOrders(),
		prevOrders: []feed.OrderRecord{{ID: "p-o1", CreatedAt: mar(2).AddDate(-1, 0, 0), Subtotal: d("80")}},
	}
	svc := NewService(fd, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type: TypeDashboard,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Comparison)
	assert.Equal(t, 2023, res.Comparison.From.Year())
	assert.Equal(t, 1, res.Comparison.Totals.OrderCount)
}

func TestRunComparisonSkippedForMultiYearRange(t *testing.T) {
	fd := &stubFeed{orders: sampleOrders()}
	svc := NewService(fd, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type: TypeDashboard,
		From: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Comparison, "multi-year comparison is not applicable, not zero")
}

func TestRunProfitByProductLineMode(t *testing.T) {
	svc := NewService(&stubFeed{orders: sampleOrders()}, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type: TypeProfitByProduct,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	// keys sort lexically, labels carry product titles
	assert.Equal(t, "p1", res.Rows[0].Key)
	assert.Equal(t, "Tee", res.Rows[0].Label)
	assert.Equal(t, 1, res.Rows[0].OrderCount)
	assert.Equal(t, 110.0, res.Rows[0].GrossRevenue)
	assert.Equal(t, 10.0, res.Rows[0].Discounts, "order discount prorated onto the single line")
}

func TestRunProductTypeFilterSwitchesToLineMode(t *testing.T) {
	svc := NewService(&stubFeed{orders: sampleOrders()}, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type:    TypePL,
		From:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Filters: Filters{ProductType: "Shirt"},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "2024-03", res.Rows[0].Key)
	assert.Equal(t, 1, res.Rows[0].OrderCount)
	assert.Equal(t, 110.0, res.Rows[0].GrossRevenue)
}

func TestRunChannelFilter(t *testing.T) {
	svc := NewService(&stubFeed{orders: sampleOrders()}, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type:    TypeProfitByChannel,
		From:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		Filters: Filters{Channel: "POS"},
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "POS", res.Rows[0].Key)
}

func TestRunProfitByOrderRowPerOrder(t *testing.T) {
	svc := NewService(&stubFeed{orders: sampleOrders()}, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type: TypeProfitByOrder,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "#1001", res.Rows[0].Key)
	assert.Equal(t, "#1002", res.Rows[1].Key)
}

func TestRunWeeklyAcrossYearsFallsBackToMonthly(t *testing.T) {
	svc := NewService(&stubFeed{orders: sampleOrders()}, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type:        TypePL,
		From:        time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Granularity: period.Weekly,
	})
	require.NoError(t, err)
	assert.Equal(t, period.Monthly, res.Granularity)
}

func TestRunWeeklySeedsEmptyWeeks(t *testing.T) {
	svc := NewService(&stubFeed{orders: sampleOrders()}, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC) } // week 10

	res, err := svc.Run(context.Background(), Request{
		Type:        TypeDashboard,
		From:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Granularity: period.Weekly,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 10, "weeks 1-10 all present")
	assert.Equal(t, "4", res.Rows[3].Key)
	assert.Equal(t, 0, res.Rows[3].OrderCount)
	assert.Equal(t, 0.0, res.Rows[3].GrossRevenue)
}

func TestRunRefundTotals(t *testing.T) {
	fd := &stubFeed{
		orders: sampleOrders(),
		refunds: []feed.RefundRecord{
			{OrderID: "o1", Amount: d("20"), ProcessedAt: mar(4)},
		},
	}
	svc := NewService(fd, nil, nil)

	res, err := svc.Run(context.Background(), Request{
		Type: TypePL,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.Refunds)
	// single monthly bucket takes the whole refund share
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 20.0, res.Rows[0].Returns)
}
