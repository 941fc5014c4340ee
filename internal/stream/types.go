package stream

import "candlestream/internal/model"

// Outbound message types.
const (
	msgTypeCandle = "CANDLE"
	msgTypeError  = "ERROR"
)

// Inbound control message types.
const (
	ctrlSetSpeed = "SET_SPEED"
	ctrlPause    = "PAUSE"
	ctrlPlay     = "PLAY"
)

// CandlePayload is the wire form of one annotated bar. The dataset id is
// sent under both spellings to be friendly to clients, null when the
// series has none. Indicators map ids to values, null while the indicator
// is warming up; the field is omitted when the session registered none.
type CandlePayload struct {
	Timestamp      int64   `json:"timestamp"`
	Symbol         string  `json:"symbol"`
	Timeframe      string  `json:"timeframe"`
	DatasetID      *string `json:"dataset_id"`
	DatasetIDCamel *string `json:"datasetId"`
	Open           float64 `json:"open"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	Close          float64 `json:"close"`
	Volume         float64 `json:"volume"`

	Indicators map[string]*float64 `json:"indicators,omitempty"`
}

type candleMessage struct {
	Type    string        `json:"type"`
	Payload CandlePayload `json:"payload"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newCandleMessage(c model.Candle, indicators map[string]*float64) candleMessage {
	payload := CandlePayload{
		Timestamp:  c.Timestamp,
		Symbol:     c.Symbol,
		Timeframe:  c.Timeframe,
		Open:       c.Open,
		High:       c.High,
		Low:        c.Low,
		Close:      c.Close,
		Volume:     c.Volume,
		Indicators: indicators,
	}
	if c.DatasetID != "" {
		ds := c.DatasetID
		payload.DatasetID = &ds
		payload.DatasetIDCamel = &ds
	}
	return candleMessage{Type: msgTypeCandle, Payload: payload}
}
