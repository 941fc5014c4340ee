package postgres

import "time"

// CandleRecord represents one persisted OHLCV bar. A series is identified
// by (symbol, timeframe, dataset_id); the unique index also covers the
// timestamp so re-ingesting a dataset cannot produce duplicates, and the
// id column gives cursor pagination a stable tie-break for equal
// timestamps.
type CandleRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol    string `gorm:"type:text;not null;index:idx_candle_symbol;index:idx_candle_series_ts,unique"`
	Timeframe string `gorm:"type:varchar(10);not null;index:idx_candle_series_ts,unique"`
	DatasetID string `gorm:"type:text;index:idx_candle_series_ts,unique"`

	// epoch milliseconds
	Timestamp int64 `gorm:"not null;index:idx_candle_series_ts,unique;index:idx_candle_timestamp"`

	Open  float64 `gorm:"type:numeric;not null"`
	High  float64 `gorm:"type:numeric;not null"`
	Low   float64 `gorm:"type:numeric;not null"`
	Close float64 `gorm:"type:numeric;not null"`

	Volume float64 `gorm:"type:numeric;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (CandleRecord) TableName() string {
	return "candles"
}
