// Package report implements the order aggregation and profit-waterfall
// engine: it paginates the order feed for a date range, prorates discounts,
// folds records into time- and dimension-keyed accumulators, and applies the
// layered cost deduction pipeline to produce report rows.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/profitlens/profitlens/internal/feed"
	"github.com/profitlens/profitlens/internal/money"
	"github.com/profitlens/profitlens/internal/period"
)

// Report types accepted by the dispatch surface.
const (
	TypeDashboard        = "dashboard"
	TypePL               = "pl"
	TypeProfitByChannel  = "profitByChannel"
	TypeProfitByOrder    = "profitByOrder"
	TypeProfitByProduct  = "profitByProduct"
	TypeProfitByProdType = "profitByProductType"
	TypeProfitBySKU      = "profitBySKU"
	TypeProfitByVendor   = "profitByVendor"
)

var (
	// ErrFeed marks a failed feed fetch. The whole computation aborts; there
	// is no partial-data fallback.
	ErrFeed = errors.New("report: feed fetch failed")
	// ErrInvalidRequest marks a request that failed validation.
	ErrInvalidRequest = errors.New("report: invalid request")
)

// Filters narrows a report to a product, type, channel, vendor, SKU or tag.
// A product-granular filter switches the engine into per-line-item mode.
type Filters struct {
	ProductID   string `json:"productId,omitempty"`
	ProductType string `json:"productType,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Tag         string `json:"tag,omitempty"`
}

func (f Filters) lineGranular() bool {
	return f.ProductID != "" || f.ProductType != "" || f.Vendor != "" || f.SKU != ""
}

// Request is one report computation order. The cost configuration rides along
// with the request; the engine never persists it.
type Request struct {
	Type        string             `json:"type" validate:"required,oneof=dashboard pl profitByChannel profitByOrder profitByProduct profitByProductType profitBySKU profitByVendor"`
	From        time.Time          `json:"from" validate:"required"`
	To          time.Time          `json:"to" validate:"required"`
	Granularity period.Granularity `json:"granularity,omitempty"`
	Filters     Filters            `json:"filters"`
	Costs       CostConfiguration  `json:"costs"`
}

// Comparison carries year-over-year totals for the same range shifted back
// one year. A nil Comparison on the result means "no prior-year data
// applicable", which callers must distinguish from zero revenue.
type Comparison struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Totals Totals    `json:"totals"`
}

// Result is the JSON-serializable report payload. Rows is empty but non-nil
// when the range holds no data, so "no data" stays distinguishable from a
// failed request.
type Result struct {
	Type        string             `json:"type"`
	Currency    string             `json:"currency"`
	From        time.Time          `json:"from"`
	To          time.Time          `json:"to"`
	Granularity period.Granularity `json:"granularity"`
	Rows        []ReportRow        `json:"rows"`
	Totals      Totals             `json:"totals"`
	Refunds     float64            `json:"totalRefunds"`
	Customers   *CustomerInsights  `json:"customers,omitempty"`
	Comparison  *Comparison        `json:"comparison,omitempty"`
}

// Service runs report computations against the order feed. Each invocation
// owns its accumulators exclusively; no state is shared across requests and
// every computation refetches its range from scratch.
type Service struct {
	feed     feed.Client
	cache    *Cache
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires the feed client with an optional report cache.
func NewService(feedClient feed.Client, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		feed:     feedClient,
		cache:    cache,
		logger:   logger,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run validates, normalizes, and executes one report request, going through
// the cache when one is configured.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if s == nil || s.feed == nil {
		return Result{}, errors.New("report: service not configured")
	}
	if err := s.validate.Struct(req); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Granularity != "" && !req.Granularity.Valid() {
		return Result{}, fmt.Errorf("%w: unknown granularity %q", ErrInvalidRequest, req.Granularity)
	}
	req = s.normalize(req)
	if req.To.Before(req.From) {
		return Result{}, fmt.Errorf("%w: range end precedes start", ErrInvalidRequest)
	}

	if s.cache == nil {
		return s.compute(ctx, req)
	}

	key, err := s.cache.BuildKey(ctx, keyReport(req))
	if err != nil {
		return Result{}, err
	}
	var result Result
	if err := s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		return s.compute(ctx, req)
	}); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Service) normalize(req Request) Request {
	if req.Granularity == "" {
		if req.Type == TypePL {
			req.Granularity = period.Monthly
		} else {
			req.Granularity = period.Daily
		}
	}
	// Year-relative week numbers break across year boundaries; degrade to
	// monthly buckets instead of failing the computation.
	if req.Granularity == period.Weekly && req.From.Year() != req.To.Year() {
		s.logger.Warn("weekly granularity across years, falling back to monthly",
			slog.Time("from", req.From), slog.Time("to", req.To))
		req.Granularity = period.Monthly
	}
	return req
}

func (s *Service) compute(ctx context.Context, req Request) (Result, error) {
	runID := uuid.NewString()
	started := s.now()
	logger := s.logger.With(slog.String("run_id", runID), slog.String("report", req.Type))

	orders, refunds, comparison, err := s.fetch(ctx, req, logger)
	if err != nil {
		return Result{}, err
	}

	result := s.build(req, orders, refunds)
	result.Comparison = comparison

	logger.Info("report computed",
		slog.Int("orders", len(orders)),
		slog.Int("rows", len(result.Rows)),
		slog.Duration("elapsed", s.now().Sub(started)))
	return result, nil
}

// fetch pulls orders and refunds for the primary window concurrently, plus
// the year-over-year window for dashboard requests. A primary fetch failure
// aborts; a comparison failure only degrades the comparison to nil.
func (s *Service) fetch(ctx context.Context, req Request, logger *slog.Logger) ([]feed.OrderRecord, []feed.RefundRecord, *Comparison, error) {
	opts := feed.FetchOptions{Status: "paid", Filter: orderPredicate(req.Filters)}

	var (
		orders     []feed.OrderRecord
		refunds    []feed.RefundRecord
		comparison *Comparison
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.feed.FetchOrders(gctx, req.From, req.To, opts)
		if err != nil {
			return fmt.Errorf("%w: orders: %v", ErrFeed, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		refunds, err = s.feed.FetchRefunds(gctx, req.From, req.To)
		if err != nil {
			return fmt.Errorf("%w: refunds: %v", ErrFeed, err)
		}
		return nil
	})
	if req.Type == TypeDashboard && req.From.Year() == req.To.Year() {
		g.Go(func() error {
			cmp, err := s.compareWindow(gctx, req, opts)
			if err != nil {
				// explicitly not applicable, never zeros
				logger.Warn("comparison window skipped", slog.Any("error", err))
				return nil
			}
			comparison = cmp
			return nil
		})
	} else if req.Type == TypeDashboard {
		logger.Info("comparison skipped for multi-year range")
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return orders, refunds, comparison, nil
}

func (s *Service) compareWindow(ctx context.Context, req Request, opts feed.FetchOptions) (*Comparison, error) {
	prevFrom := req.From.AddDate(-1, 0, 0)
	prevTo := req.To.AddDate(-1, 0, 0)

	var (
		orders  []feed.OrderRecord
		refunds []feed.RefundRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.feed.FetchOrders(gctx, prevFrom, prevTo, opts)
		return err
	})
	g.Go(func() error {
		var err error
		refunds, err = s.feed.FetchRefunds(gctx, prevFrom, prevTo)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := s.totals(Request{
		Type: req.Type, From: prevFrom, To: prevTo,
		Granularity: req.Granularity, Filters: req.Filters, Costs: req.Costs,
	}, orders, refunds)
	return &Comparison{From: prevFrom, To: prevTo, Totals: totals}, nil
}

func (s *Service) build(req Request, orders []feed.OrderRecord, refunds []feed.RefundRecord) Result {
	agg := NewAggregation(req.Costs)
	lineMode := req.Filters.lineGranular()

	timeBuckets := req.Type == TypeDashboard || req.Type == TypePL
	if timeBuckets && req.Granularity == period.Weekly {
		for _, w := range period.SeedWeeks(req.From.Year(), s.now()) {
			agg.Seed(strconv.Itoa(w))
		}
	}

	for _, o := range orders {
		switch {
		case timeBuckets && !lineMode:
			agg.AddOrder(period.Key(o.CreatedAt, req.Granularity), o)
		case timeBuckets:
			for _, li := range o.LineItems {
				if lineMatches(req.Filters, li) {
					agg.AddLineItem(period.Key(o.CreatedAt, req.Granularity), o, li)
				}
			}
		default:
			s.foldDimension(agg, req, o)
		}
	}

	totalRefunds := feed.TotalRefunds(refunds, req.From.UTC(), feed.ExclusiveEnd(req.To))
	rangeDays := rangeDays(req.From, req.To)

	ctx := WaterfallContext{
		TotalReturns: totalRefunds,
		AdSpend:      req.Costs.AdSpend,
		MonthlyOpex:  MonthlyOpex(req.Costs.OperatingExpenses, req.From, req.To),
		BucketCount:  agg.Len(),
		Granularity:  req.Granularity,
		EvenOpex:     !timeBuckets,
		RangeDays:    rangeDays,
	}

	rows := make([]ReportRow, 0, agg.Len())
	for _, key := range agg.Keys(req.Granularity) {
		rows = append(rows, ComputeRow(key, agg.Bucket(key), req.Costs, ctx))
	}

	result := Result{
		Type:        req.Type,
		Currency:    currencyOf(orders),
		From:        req.From,
		To:          req.To,
		Granularity: req.Granularity,
		Rows:        rows,
		Totals:      s.totals(req, orders, refunds),
		Refunds:     money.Cents(totalRefunds),
	}
	if req.Type == TypeDashboard {
		insights := AnalyzeCustomers(orders, req.Granularity)
		result.Customers = &insights
	}
	return result
}

func (s *Service) foldDimension(agg *Aggregation, req Request, o feed.OrderRecord) {
	switch req.Type {
	case TypeProfitByChannel:
		agg.AddOrder(channelOf(o), o)
	case TypeProfitByOrder:
		key := o.Name
		if key == "" {
			key = o.ID
		}
		agg.AddOrder(key, o)
		agg.SetLabel(key, key)
	case TypeProfitByProduct:
		for _, li := range o.LineItems {
			if !lineMatches(req.Filters, li) {
				continue
			}
			agg.AddLineItem(li.Product.ID, o, li)
			agg.SetLabel(li.Product.ID, li.Product.Title)
		}
	case TypeProfitByProdType:
		for _, li := range o.LineItems {
			if lineMatches(req.Filters, li) {
				agg.AddLineItem(li.Product.ProductType, o, li)
			}
		}
	case TypeProfitBySKU:
		for _, li := range o.LineItems {
			if lineMatches(req.Filters, li) {
				agg.AddLineItem(li.SKU, o, li)
			}
		}
	case TypeProfitByVendor:
		for _, li := range o.LineItems {
			if lineMatches(req.Filters, li) {
				agg.AddLineItem(li.Product.Vendor, o, li)
			}
		}
	}
}

// totals runs the waterfall over the whole range as a single bucket, so
// report totals come from unrounded decimals instead of summed rounded rows.
func (s *Service) totals(req Request, orders []feed.OrderRecord, refunds []feed.RefundRecord) Totals {
	agg := NewAggregation(req.Costs)
	const key = "range"
	agg.Seed(key)

	lineMode := req.Filters.lineGranular()
	for _, o := range orders {
		if !lineMode {
			agg.AddOrder(key, o)
			continue
		}
		for _, li := range o.LineItems {
			if lineMatches(req.Filters, li) {
				agg.AddLineItem(key, o, li)
			}
		}
	}

	row := ComputeRow(key, agg.Bucket(key), req.Costs, WaterfallContext{
		TotalReturns: feed.TotalRefunds(refunds, req.From.UTC(), feed.ExclusiveEnd(req.To)),
		AdSpend:      req.Costs.AdSpend,
		MonthlyOpex:  MonthlyOpex(req.Costs.OperatingExpenses, req.From, req.To),
		BucketCount:  1,
		Granularity:  req.Granularity,
		EvenOpex:     true,
		RangeDays:    rangeDays(req.From, req.To),
	})

	avg := 0.0
	if row.OrderCount > 0 {
		avg = money.Cents(decimal.NewFromFloat(row.NetRevenue).Div(decimal.NewFromInt(int64(row.OrderCount))))
	}
	return Totals{
		OrderCount:      row.OrderCount,
		ItemCount:       row.ItemCount,
		GrossRevenue:    row.GrossRevenue,
		Discounts:       row.Discounts,
		Returns:         row.Returns,
		NetRevenue:      row.NetRevenue,
		NetProfit:       row.NetProfit,
		NetProfitPct:    row.NetProfitPct,
		AvgOrderValue:   avg,
		FulfillmentCost: row.FulfillmentCost,
	}
}

func orderPredicate(f Filters) func(feed.OrderRecord) bool {
	if f.Channel == "" && f.Tag == "" {
		return nil
	}
	return func(o feed.OrderRecord) bool {
		if f.Channel != "" && !strings.EqualFold(channelOf(o), f.Channel) {
			return false
		}
		if f.Tag != "" && !orderHasTag(o, f.Tag) {
			return false
		}
		return true
	}
}

func orderHasTag(o feed.OrderRecord, tag string) bool {
	for _, li := range o.LineItems {
		for _, t := range li.Product.Tags {
			if strings.EqualFold(t, tag) {
				return true
			}
		}
	}
	return false
}

func lineMatches(f Filters, li feed.LineItem) bool {
	if f.ProductID != "" && li.Product.ID != f.ProductID {
		return false
	}
	if f.ProductType != "" && !strings.EqualFold(li.Product.ProductType, f.ProductType) {
		return false
	}
	if f.Vendor != "" && !strings.EqualFold(li.Product.Vendor, f.Vendor) {
		return false
	}
	if f.SKU != "" && !strings.EqualFold(li.SKU, f.SKU) {
		return false
	}
	return true
}

func channelOf(o feed.OrderRecord) string {
	if o.Channel == "" {
		return DefaultChannel
	}
	return o.Channel
}

func currencyOf(orders []feed.OrderRecord) string {
	for _, o := range orders {
		if o.Currency != "" {
			return o.Currency
		}
	}
	return "USD"
}

func rangeDays(from, to time.Time) int {
	days := int(feed.ExclusiveEnd(to).Sub(from.UTC().Truncate(24*time.Hour)).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}
