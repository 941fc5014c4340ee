package stream

import (
	"errors"
	"net/url"
	"strconv"

	"candlestream/config"
	"candlestream/internal/replay"
)

// Session-fatal validation failures. Sent verbatim in the ERROR frame
// before the channel closes.
var (
	errMissingSeries = errors.New("symbol and timeframe query params are required")
	errBadAfter      = errors.New("after/from must be a unix epoch in milliseconds")
)

// SessionParams is everything a client can set through the connection's
// query string.
type SessionParams struct {
	Symbol        string
	Timeframe     string
	DatasetID     string
	After         *int64 // exclusive epoch-ms starting cursor
	BatchSize     int
	Speed         float64
	IndicatorsRaw string
}

// ParseSessionParams validates and normalizes the query string.
//
// Missing symbol/timeframe and a non-numeric after/from are fatal. Batch
// and speed never are: unusable values fall back to their defaults.
func ParseSessionParams(q url.Values, cfg config.StreamConfig) (SessionParams, error) {
	p := SessionParams{
		Symbol:    q.Get("symbol"),
		Timeframe: q.Get("timeframe"),
	}
	if p.Symbol == "" || p.Timeframe == "" {
		return p, errMissingSeries
	}

	p.DatasetID = q.Get("datasetId")
	if p.DatasetID == "" {
		p.DatasetID = q.Get("dataset_id")
	}

	afterRaw := q.Get("after")
	if afterRaw == "" {
		afterRaw = q.Get("from")
	}
	if afterRaw != "" {
		after, err := strconv.ParseInt(afterRaw, 10, 64)
		if err != nil {
			return p, errBadAfter
		}
		p.After = &after
	}

	p.BatchSize = clampBatchSize(q.Get("batch"), cfg.BatchSize, cfg.MaxBatchSize)
	p.Speed = parseSpeed(q.Get("speed"))
	p.IndicatorsRaw = q.Get("indicators")

	return p, nil
}

// clampBatchSize resolves the requested page size: absent, non-numeric or
// non-positive requests use the default, and everything is capped at max.
func clampBatchSize(raw string, def, max int) int {
	requested, err := strconv.Atoi(raw)
	if raw == "" || err != nil || requested <= 0 {
		requested = def
	}
	if requested > max {
		requested = max
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}

// parseSpeed resolves the initial playback speed: absent or non-numeric
// requests run at 1x, anything else is floored at the minimum speed.
func parseSpeed(raw string) float64 {
	if raw == "" {
		return 1.0
	}
	speed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1.0
	}
	if speed < replay.MinSpeed {
		return replay.MinSpeed
	}
	return speed
}
