package postgres

import (
	"context"
	"fmt"

	"candlestream/internal/model"
	"candlestream/internal/source"

	"gorm.io/gorm/clause"
)

// Fetch implements source.Source: one page of candles for a series,
// ascending by timestamp, id as a stable tie-break, strictly after the
// cursor when one is given.
func (p *PostgresClient) Fetch(ctx context.Context, q source.Query) ([]model.Candle, error) {
	db := p.DB.WithContext(ctx).
		Where("symbol = ? AND timeframe = ?", q.Symbol, q.Timeframe)

	if q.DatasetID != "" {
		db = db.Where("dataset_id = ?", q.DatasetID)
	}
	if q.After != nil {
		db = db.Where("timestamp > ?", *q.After)
	}

	var records []CandleRecord
	err := db.Order("timestamp ASC, id ASC").Limit(q.Limit).Find(&records).Error
	if err != nil {
		return nil, err
	}

	candles := make([]model.Candle, len(records))
	for i, r := range records {
		candles[i] = r.ToCandle()
	}
	return candles, nil
}

// InsertCandle stores one bar, silently skipping exact series/timestamp
// duplicates. Used by seeding and backfill tooling.
func (p *PostgresClient) InsertCandle(ctx context.Context, record *CandleRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "timeframe"},
			{Name: "dataset_id"},
			{Name: "timestamp"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf(
			"duplicate candle skipped: symbol=%s timeframe=%s dataset=%s timestamp=%d",
			record.Symbol,
			record.Timeframe,
			record.DatasetID,
			record.Timestamp,
		)
	}

	return nil
}

// CountCandles returns the number of stored bars for a series, mostly for
// seeding scripts and tests.
func (p *PostgresClient) CountCandles(ctx context.Context, symbol, timeframe, datasetID string) (int64, error) {
	db := p.DB.WithContext(ctx).Model(&CandleRecord{}).
		Where("symbol = ? AND timeframe = ?", symbol, timeframe)
	if datasetID != "" {
		db = db.Where("dataset_id = ?", datasetID)
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteSeries removes every bar of one series. Used when re-seeding a
// dataset.
func (p *PostgresClient) DeleteSeries(ctx context.Context, symbol, timeframe, datasetID string) error {
	db := p.DB.WithContext(ctx).
		Where("symbol = ? AND timeframe = ?", symbol, timeframe)
	if datasetID != "" {
		db = db.Where("dataset_id = ?", datasetID)
	}
	return db.Delete(&CandleRecord{}).Error
}

// ToCandle converts a stored record into the replay model.
func (r CandleRecord) ToCandle() model.Candle {
	return model.Candle{
		Timestamp: r.Timestamp,
		Symbol:    r.Symbol,
		Timeframe: r.Timeframe,
		DatasetID: r.DatasetID,
		Open:      r.Open,
		High:      r.High,
		Low:       r.Low,
		Close:     r.Close,
		Volume:    r.Volume,
	}
}

// FromCandle builds a record ready for insertion.
func FromCandle(c model.Candle) *CandleRecord {
	return &CandleRecord{
		Symbol:    c.Symbol,
		Timeframe: c.Timeframe,
		DatasetID: c.DatasetID,
		Timestamp: c.Timestamp,
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}
