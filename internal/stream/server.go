package stream

import (
	"context"
	"fmt"
	"net/http"

	"candlestream/config"
	"candlestream/internal/metrics"

	"go.uber.org/zap"
)

// Server wires the websocket handler and the sidecar endpoints into one
// HTTP listener. The candle stream is reachable at /ws/candles and at /ws
// for clients whose base URL already includes the prefix.
type Server struct {
	httpServer *http.Server
	cfg        config.ServerConfig
	log        *zap.Logger
}

func NewServer(cfg config.ServerConfig, handler *Handler, m *metrics.Metrics, log *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/ws/candles", handler)
	mux.Handle("/ws", handler)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: mux,
		},
		cfg: cfg,
		log: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout. Sessions in flight are cut off by their connections
// closing.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
