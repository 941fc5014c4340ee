package model

// Candle is one OHLCV price bar for a symbol/timeframe at a specific
// timestamp. Candles are immutable once fetched from a source.
type Candle struct {
	Timestamp int64  // epoch milliseconds
	Symbol    string
	Timeframe string
	DatasetID string // optional; empty means no dataset filter was stored

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
