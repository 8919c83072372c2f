package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/metrics"
)

// metricsServer serves /metrics and /healthz while the daemon runs.
type metricsServer struct {
	srv *http.Server
}

func newMetricsServer(addr string, reg *prom.Registry) *metricsServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if reg != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
	}

	return &metricsServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

func (m *metricsServer) Start() {
	slog.Info("Starting metrics endpoint", slog.String(logfields.URL, m.srv.Addr))
	go func() {
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", slog.Any(logfields.Error, err))
		}
	}()
}

func (m *metricsServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.srv.Shutdown(ctx); err != nil {
		slog.Error("Metrics server shutdown failed", slog.Any(logfields.Error, err))
	}
}
