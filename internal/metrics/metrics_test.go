package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("0.1.0", "go1.25.0")
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
	if m.Registry == nil {
		t.Fatal("Registry is nil")
	}
	if m.Registry == prometheus.DefaultRegisterer {
		t.Error("Metrics registry is the global DefaultRegisterer; should be isolated")
	}
}

func TestMetricsIsolation(t *testing.T) {
	m1 := NewMetrics("0.1.0", "go1.25.0")
	m2 := NewMetrics("0.2.0", "go1.25.0")

	m1.LanguageChangeTotal.WithLabelValues("en").Inc()

	if got := testutil.ToFloat64(m2.LanguageChangeTotal.WithLabelValues("en")); got != 0 {
		t.Errorf("m2 saw m1 counter value %v; registries are not isolated", got)
	}
	if got := testutil.ToFloat64(m1.LanguageChangeTotal.WithLabelValues("en")); got != 1 {
		t.Errorf("m1 counter = %v, want 1", got)
	}
}

func TestMetricsFamilies(t *testing.T) {
	m := NewMetrics("test", "go1.25.0")

	m.PagesRenderedTotal.Inc()
	m.LinksRenderedTotal.WithLabelValues("spell").Add(3)
	m.BuildDurationSeconds.Observe(0.2)
	m.PagesLocalizedTotal.WithLabelValues("www").Inc()
	m.LanguageChangeTotal.WithLabelValues("tw").Inc()
	m.TooltipRefreshTotal.WithLabelValues("succeeded").Inc()
	m.LiveClients.Set(2)
	m.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200").Inc()
	m.HTTPRequestDurationSeconds.WithLabelValues("GET", "/healthz", "200").Observe(0.01)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	expected := map[string]bool{
		"wowplaybook_pages_rendered_total":          false,
		"wowplaybook_links_rendered_total":          false,
		"wowplaybook_build_duration_seconds":        false,
		"wowplaybook_pages_localized_total":         false,
		"wowplaybook_language_changes_total":        false,
		"wowplaybook_tooltip_refresh_total":         false,
		"wowplaybook_live_clients":                  false,
		"wowplaybook_http_requests_total":           false,
		"wowplaybook_http_request_duration_seconds": false,
		"wowplaybook_info":                          false,
	}
	for _, f := range families {
		if _, ok := expected[f.GetName()]; ok {
			expected[f.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("metric family %q not found in gathered output", name)
		}
	}
}

func TestMetricsBuildInfo(t *testing.T) {
	m := NewMetrics("1.2.3", "go1.25.0")
	if got := testutil.ToFloat64(m.BuildInfo.WithLabelValues("1.2.3", "go1.25.0")); got != 1 {
		t.Errorf("build info gauge value = %v, want 1", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics("0.1.0", "go1.25.0")
	m.TooltipRefreshTotal.WithLabelValues("timed_out").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("handler returned status %d, want 200", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	output := string(body)

	if !strings.Contains(output, `wowplaybook_tooltip_refresh_total{result="timed_out"} 1`) {
		t.Error("handler output missing wowplaybook_tooltip_refresh_total")
	}
	if !strings.Contains(output, "go_goroutines") {
		t.Error("handler output missing go_goroutines (Go runtime collector)")
	}
}
