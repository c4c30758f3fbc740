// Package metrics exposes wowplaybook's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all wowplaybook Prometheus metrics on an isolated
// registry, so each server or test owns its own instance.
type Metrics struct {
	Registry *prometheus.Registry

	// Site build
	PagesRenderedTotal   prometheus.Counter
	LinksRenderedTotal   *prometheus.CounterVec
	BuildDurationSeconds prometheus.Histogram

	// Link localization
	PagesLocalizedTotal *prometheus.CounterVec
	LanguageChangeTotal *prometheus.CounterVec
	TooltipRefreshTotal *prometheus.CounterVec

	// Live channel
	LiveClients prometheus.Gauge

	// Preview server
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	// Build info
	BuildInfo *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance with every collector registered.
// version and goVersion are recorded as labels on wowplaybook_info.
func NewMetrics(version, goVersion string) *Metrics {
	reg := prometheus.NewRegistry()

	// Standard Go runtime + process metrics
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		PagesRenderedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wowplaybook_pages_rendered_total",
				Help: "Total markdown pages rendered to HTML.",
			},
		),
		LinksRenderedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wowplaybook_links_rendered_total",
				Help: "Total Wowhead reference links rendered, by resource type.",
			},
			[]string{"type"},
		),
		BuildDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wowplaybook_build_duration_seconds",
				Help:    "Duration of full site builds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		PagesLocalizedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wowplaybook_pages_localized_total",
				Help: "Total pages served with links synchronized, by locale.",
			},
			[]string{"locale"},
		),
		LanguageChangeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wowplaybook_language_changes_total",
				Help: "Total language preference changes, by language.",
			},
			[]string{"language"},
		),
		TooltipRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wowplaybook_tooltip_refresh_total",
				Help: "Total tooltip refresh requests, by result.",
			},
			[]string{"result"},
		),
		LiveClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wowplaybook_live_clients",
				Help: "Number of connected live preview clients.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wowplaybook_http_requests_total",
				Help: "Total HTTP requests handled by the preview server.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wowplaybook_http_request_duration_seconds",
				Help:    "Duration of preview server HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wowplaybook_info",
				Help: "Build information for the running wowplaybook instance.",
			},
			[]string{"version", "go_version"},
		),
	}

	reg.MustRegister(
		m.PagesRenderedTotal,
		m.LinksRenderedTotal,
		m.BuildDurationSeconds,
		m.PagesLocalizedTotal,
		m.LanguageChangeTotal,
		m.TooltipRefreshTotal,
		m.LiveClients,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.BuildInfo,
	)

	// Always 1, labels carry the data.
	m.BuildInfo.WithLabelValues(version, goVersion).Set(1)

	return m
}

// Handler returns an http.Handler that serves the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
