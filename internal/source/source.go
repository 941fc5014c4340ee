// Package source defines the candle data source consumed by the replay
// loop, plus an in-memory implementation used in tests and fixtures.
package source

import (
	"context"

	"candlestream/internal/model"
)

// Query selects one page of candles for a single series.
//
// Pagination is cursor-based: After is an exclusive lower bound on the
// candle timestamp. Because the bound is strict, a series containing
// several candles with the same timestamp can lose rows at a page
// boundary; implementations must at least order ties stably so the
// behavior is deterministic.
type Query struct {
	Symbol    string
	Timeframe string
	DatasetID string // optional exact-match filter
	After     *int64 // exclusive epoch-ms lower bound, nil = from the start
	Limit     int
}

// Source returns candles matching the query in ascending timestamp order,
// at most Limit rows. An empty result means the reader has caught up.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]model.Candle, error)
}
