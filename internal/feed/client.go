// Package feed fetches paid orders and refunds from the merchant's order feed.
// The feed is cursor-paginated; every report computation refetches its date
// range page by page and holds the full result in memory.
package feed

import (
	"context"
	"errors"
	"time"
)

// PageSize is the fixed number of records requested per page.
const PageSize = 250

// ErrPageLimit indicates the pagination loop exceeded its defensive cap. A
// healthy feed terminates by reporting hasMore=false; the cap keeps a
// malfunctioning feed from looping indefinitely.
var ErrPageLimit = errors.New("feed: page limit exceeded")

// FetchOptions narrows an order fetch.
type FetchOptions struct {
	// Status filters server-side on financial status, e.g. "paid".
	Status string
	// Filter drops records client-side after each page is decoded. Nil keeps
	// everything.
	Filter func(OrderRecord) bool
}

// Client is the order feed consumed by the reporting engine. Both fetches
// take an inclusive date range; implementations convert the end to an
// exclusive bound before querying so full days are covered regardless of
// time-of-day components. Any page failure aborts the whole fetch; partial
// results are never returned.
type Client interface {
	FetchOrders(ctx context.Context, from, to time.Time, opts FetchOptions) ([]OrderRecord, error)
	FetchRefunds(ctx context.Context, from, to time.Time) ([]RefundRecord, error)
}

// ExclusiveEnd converts an inclusive range end to the exclusive upper bound
// used on the wire: midnight of the following calendar day.
func ExclusiveEnd(to time.Time) time.Time {
	t := to.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
