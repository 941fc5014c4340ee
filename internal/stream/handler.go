// Package stream exposes the websocket endpoint that replays persisted
// candles to a client: session parameter parsing, the control message
// listener, and the bridge between the replay loop and the connection.
package stream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"candlestream/config"
	"candlestream/internal/indicator"
	"candlestream/internal/metrics"
	"candlestream/internal/model"
	"candlestream/internal/replay"
	"candlestream/internal/source"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxControlSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler owns one websocket endpoint. Each accepted connection becomes an
// independent replay session with its own cursor, indicators and control
// state; the handler itself is stateless across sessions.
type Handler struct {
	cfg     config.StreamConfig
	src     source.Source
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHandler(cfg config.StreamConfig, src source.Source, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{cfg: cfg, src: src, metrics: m, log: log}
}

// ServeHTTP upgrades the connection and runs the session to completion.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	params, err := ParseSessionParams(r.URL.Query(), h.cfg)
	if err != nil {
		h.closeWithError(conn, err.Error())
		return
	}

	registry, err := indicator.ParseSpecs(params.IndicatorsRaw)
	if err != nil {
		h.closeWithError(conn, "invalid indicators payload")
		return
	}

	h.runSession(r.Context(), conn, params, registry)
}

// closeWithError reports a setup-time validation failure and closes the
// channel. There is no retry path: the client must reconnect.
func (h *Handler) closeWithError(conn *websocket.Conn, msg string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(errorMessage{Type: msgTypeError, Error: msg}); err != nil {
		h.log.Debug("failed to deliver error frame", zap.Error(err))
	}
}

func (h *Handler) runSession(parent context.Context, conn *websocket.Conn, params SessionParams, registry *indicator.Registry) {
	log := h.log.With(
		zap.String("symbol", params.Symbol),
		zap.String("timeframe", params.Timeframe),
		zap.String("dataset", params.DatasetID),
	)

	h.metrics.SessionsTotal.Inc()
	h.metrics.ActiveSessions.Inc()
	defer h.metrics.ActiveSessions.Dec()

	ctrl := replay.NewControlState(params.Speed)
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Control listener: the only reader of the connection. Cancels the
	// session when the peer disconnects.
	go h.listenControl(conn, ctrl, cancel, log)

	replayer := &replay.Replayer{
		Source: timedSource{inner: h.src, metrics: h.metrics},
		Query: source.Query{
			Symbol:    params.Symbol,
			Timeframe: params.Timeframe,
			DatasetID: params.DatasetID,
			After:     params.After,
			Limit:     params.BatchSize,
		},
		Registry:     registry,
		Control:      ctrl,
		Tunables:     h.tunables(),
		PollInterval: h.cfg.PollInterval,
		Emit: func(c model.Candle, indicators map[string]*float64) error {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(newCandleMessage(c, indicators)); err != nil {
				return err
			}
			h.metrics.CandlesEmitted.Inc()
			return nil
		},
		Log: log,
	}

	log.Info("replay session started",
		zap.Int("batch", params.BatchSize),
		zap.Float64("speed", params.Speed),
		zap.Int("indicators", registry.Len()))

	err := replayer.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Info("replay session ended")
	default:
		h.metrics.SessionErrors.Inc()
		log.Error("replay session failed", zap.Error(err))
	}
}

// listenControl reads control frames until the connection dies, applying
// each to the shared control state. Malformed frames are dropped silently.
func (h *Handler) listenControl(conn *websocket.Conn, ctrl *replay.ControlState, cancel context.CancelFunc, log *zap.Logger) {
	defer cancel()

	conn.SetReadLimit(maxControlSize)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Debug("control channel closed", zap.Error(err))
			return
		}
		if kind := applyControlMessage(msg, ctrl); kind != "" {
			h.metrics.ControlMessages.WithLabelValues(kind).Inc()
		}
	}
}

func (h *Handler) tunables() replay.Tunables {
	return replay.Tunables{
		ReferenceDeltaMs: h.cfg.ReferenceDeltaMs,
		BaseDelayMs:      h.cfg.BaseDelayMs,
		MinEmitDelayMs:   h.cfg.MinEmitDelayMs,
		MaxEmitDelayMs:   h.cfg.MaxEmitDelayMs,
	}
}

// timedSource wraps the session's data source with fetch latency
// instrumentation.
type timedSource struct {
	inner   source.Source
	metrics *metrics.Metrics
}

func (s timedSource) Fetch(ctx context.Context, q source.Query) ([]model.Candle, error) {
	start := time.Now()
	candles, err := s.inner.Fetch(ctx, q)
	s.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	return candles, err
}
