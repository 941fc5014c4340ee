package source

import (
	"context"
	"sort"
	"sync"

	"candlestream/internal/model"
)

// MemoryStore keeps candles per symbol/timeframe series in memory. It
// backs replay sessions in tests and fixture setups where no database is
// available.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]model.Candle
	sorted map[string]bool
}

func seriesKey(symbol, timeframe string) string {
	return symbol + "|" + timeframe
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string][]model.Candle),
		sorted: make(map[string]bool),
	}
}

// Add stores a candle. Candles may be added in any order; Fetch sorts
// lazily per series.
func (m *MemoryStore) Add(c model.Candle) {
	key := seriesKey(c.Symbol, c.Timeframe)

	m.mu.Lock()
	m.data[key] = append(m.data[key], c)
	m.sorted[key] = false
	m.mu.Unlock()
}

// Count returns the total number of candles stored across all series.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, candles := range m.data {
		total += len(candles)
	}
	return total
}

// Fetch implements Source. An empty DatasetID matches every dataset, the
// same way the database store only filters when one is given. Ties on
// timestamp keep insertion order, mirroring the database store's secondary
// id ordering.
func (m *MemoryStore) Fetch(_ context.Context, q Query) ([]model.Candle, error) {
	key := seriesKey(q.Symbol, q.Timeframe)

	m.mu.Lock()
	defer m.mu.Unlock()

	candles, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	if !m.sorted[key] {
		sort.SliceStable(candles, func(i, j int) bool {
			return candles[i].Timestamp < candles[j].Timestamp
		})
		m.sorted[key] = true
	}

	result := make([]model.Candle, 0, q.Limit)
	for _, c := range candles {
		if q.DatasetID != "" && c.DatasetID != q.DatasetID {
			continue
		}
		if q.After != nil && c.Timestamp <= *q.After {
			continue
		}
		result = append(result, c)
		if q.Limit > 0 && len(result) >= q.Limit {
			break
		}
	}
	return result, nil
}
