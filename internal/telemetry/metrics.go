// Package telemetry holds the Prometheus metrics and tracing setup of the API.
package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"pkt.systems/pslog"
)

const namespace = "elearning"

// Outcomes recorded for admin user listings.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// Metrics groups the collectors registered by the API.
type Metrics struct {
	Registry *prometheus.Registry

	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	ready     prometheus.Gauge
	listUsers *prometheus.CounterVec
}

// NewMetrics creates a private registry with Go and process collectors plus
// the API collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled, by route and status.",
		}, []string{"method", "route", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "ready",
			Help:      "1 when the Firebase Admin client was initialized at startup.",
		}),
		listUsers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "list_users_total",
			Help:      "Admin user listings, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.durations, m.ready, m.listUsers,
	)
	return m
}

// SetAdminReady publishes the bootstrap outcome.
func (m *Metrics) SetAdminReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.ready.Set(1)
		return
	}
	m.ready.Set(0)
}

// ObserveListUsers counts one admin listing.
func (m *Metrics) ObserveListUsers(outcome string) {
	if m == nil {
		return
	}
	m.listUsers.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency keyed by the matched route
// template, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := routeLabel(c)
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.durations.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// MetricsServer exposes /metrics on its own listener.
type MetricsServer struct {
	server *http.Server
	ln     net.Listener
	logger pslog.Logger
}

// StartMetricsServer binds addr and serves metrics in the background.
// An empty addr disables the server and returns nil.
func StartMetricsServer(addr string, m *Metrics, logger pslog.Logger) (*MetricsServer, error) {
	if addr == "" || m == nil {
		return nil, nil
	}
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	s := &MetricsServer{
		server: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		logger: logger,
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("telemetry.metrics.serve_failed", "error", err)
		}
	}()
	logger.Info("telemetry.metrics.listening", "address", ln.Addr().String())
	return s, nil
}

// Addr returns the bound address.
func (s *MetricsServer) Addr() string {
	if s == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warn("telemetry.shutdown.metrics_server_failure", "error", err)
		return err
	}
	return nil
}
