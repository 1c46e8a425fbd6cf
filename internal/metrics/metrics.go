// Package metrics exposes daemon metrics in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/matheus3301/wpphist/internal/history"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HistoryMetrics records history operations. It implements history.Observer.
type HistoryMetrics struct {
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RowsIndexed      prometheus.Counter
	MessagesIngested prometheus.Counter
}

// NewHistoryMetrics creates and registers history metrics with the given registerer.
func NewHistoryMetrics(registerer prometheus.Registerer) *HistoryMetrics {
	m := &HistoryMetrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wpphist_requests_total",
				Help: "History operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wpphist_request_duration_seconds",
				Help:    "Latency of history operations",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),
		RowsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wpphist_rows_indexed_total",
			Help: "Messages appended to the durable row store",
		}),
		MessagesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wpphist_messages_ingested_total",
			Help: "Messages written to the message database, including replays",
		}),
	}

	registerer.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.RowsIndexed,
		m.MessagesIngested,
	)
	return m
}

// Observe implements history.Observer.
func (m *HistoryMetrics) Observe(op string, outcome history.Outcome, elapsed time.Duration) {
	m.Requests.WithLabelValues(op, outcome.String()).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RegisterGauge exposes a value read at scrape time.
func RegisterGauge(registerer prometheus.Registerer, name, help string, fn func() float64) {
	registerer.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, fn))
}

// Server serves /metrics on a TCP address.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *zap.Logger
}

// Listen binds addr and prepares a /metrics handler over gatherer.
func Listen(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		logger: logger,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", zap.Error(err))
		}
	}()
	s.logger.Info("metrics listening", zap.String("addr", s.Addr()))
}

// Stop shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
