// Package metrics exposes gameplay counters over Prometheus.
package metrics

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/nathoo/questline/types"
)

// Metrics counts dialogue and inventory activity. It satisfies
// dialogue.Observer and engine.InventoryObserver.
type Metrics struct {
	DialoguesOpened  *prometheus.CounterVec
	DialoguesDropped *prometheus.CounterVec
	RewardsGranted   *prometheus.CounterVec
	ItemsCollected   *prometheus.CounterVec
	ItemsUsed        *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DialoguesOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questline_dialogues_opened_total",
				Help: "Total number of dialogue lines opened by dialogue",
			},
			[]string{"dialogue"},
		),
		DialoguesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questline_dialogues_dropped_total",
				Help: "Total number of dialogue requests dropped by dialogue and reason",
			},
			[]string{"dialogue", "code"},
		),
		RewardsGranted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questline_rewards_granted_total",
				Help: "Total number of one-time dialogue rewards granted",
			},
			[]string{"dialogue", "item"},
		),
		ItemsCollected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questline_items_collected_total",
				Help: "Total number of items collected by item",
			},
			[]string{"item"},
		),
		ItemsUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questline_items_used_total",
				Help: "Total number of items used by item and category",
			},
			[]string{"item", "category"},
		),
	}

	reg.MustRegister(m.DialoguesOpened, m.DialoguesDropped, m.RewardsGranted, m.ItemsCollected, m.ItemsUsed)
	return m
}

func (m *Metrics) DialogueOpened(dialogueID string, _ int, _ string) {
	m.DialoguesOpened.WithLabelValues(dialogueID).Inc()
}

func (m *Metrics) DialogueDropped(dialogueID, code string) {
	m.DialoguesDropped.WithLabelValues(dialogueID, code).Inc()
}

func (m *Metrics) RewardGranted(dialogueID, itemID string) {
	m.RewardsGranted.WithLabelValues(dialogueID, itemID).Inc()
}

func (m *Metrics) ItemCollected(itemID string) {
	m.ItemsCollected.WithLabelValues(itemID).Inc()
}

func (m *Metrics) ItemUsed(itemID string, category types.Category) {
	m.ItemsUsed.WithLabelValues(itemID, string(category)).Inc()
}

// Server serves /metrics and a liveness probe.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	logger     *slog.Logger
	running    atomic.Bool
}

// NewServer creates a server with its own registry holding the Go and
// process collectors plus the gameplay counters.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  New(registry),
		logger:   logger,
	}
}

// Metrics returns the gameplay counters.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Start begins serving. The returned channel receives a serve error, if any,
// and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("metrics server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("metrics server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("metrics server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop shuts the server down. Stopping a server that is not running is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_metrics_server").Wrap(err)
		}
	}
	s.logger.Info("metrics server stopped")
	return nil
}

// Addr returns the listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
