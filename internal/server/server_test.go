package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gateswong/wowplaybook/internal/live"
	"github.com/gateswong/wowplaybook/internal/localize"
	"github.com/gateswong/wowplaybook/internal/metrics"
)

const testPage = `<!DOCTYPE html>
<html lang="zh-CN"><head><title>介绍</title></head>
<body><article id="content">
<a href="https://cn.wowhead.com/spell=8921" class="wowhead-link" data-wh-rename-link="true" data-wowhead="spell=8921&amp;domain=cn">月火术</a>
</article></body></html>`

// writeSite creates a minimal generated site.
func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":                    testPage,
		"intro.html":                    testPage,
		"LegionRemix/index.html":        testPage,
		"LegionRemix/DruidBalance.html": testPage,
		"style.css":                     "body{}",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestServer(t *testing.T, cfg Config, opts ...Option) *Server {
	t.Helper()
	if cfg.SiteDir == "" {
		cfg.SiteDir = writeSite(t)
	}
	srv := New(cfg, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func get(srv *Server, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0})

	w := get(srv, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0, AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestServePageDefaultLocale(t *testing.T) {
	srv := newTestServer(t, Config{Base: "/WowPlaybook/"})

	w := get(srv, "/WowPlaybook/intro.html")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-wowhead="spell=8921&amp;domain=cn"`) {
		t.Errorf("expected cn link, got %s", body)
	}
	if strings.Contains(body, "wowplaybookLive") {
		t.Error("live flag should only be injected in live mode")
	}
}

func TestServePageCookieLocale(t *testing.T) {
	tests := []struct {
		cookie string
		want   string
	}{
		{"en", "domain=www"},
		{"tw", "domain=tw"},
		{"cn", "domain=cn"},
		{"fr", "domain=cn"},
	}
	for _, tt := range tests {
		t.Run(tt.cookie, func(t *testing.T) {
			m := metrics.NewMetrics("test", runtime.Version())
			srv := newTestServer(t, Config{Base: "/"}, WithMetrics(m))

			w := get(srv, "/intro.html", &http.Cookie{Name: localize.StorageKey, Value: tt.cookie})
			body := w.Body.String()
			if !strings.Contains(body, tt.want) {
				t.Errorf("expected %s in %s", tt.want, body)
			}
			if strings.Count(body, "domain=") != 1 {
				t.Errorf("expected a single domain param, got %d", strings.Count(body, "domain="))
			}
			locale := strings.TrimPrefix(tt.want, "domain=")
			if got := testutil.ToFloat64(m.PagesLocalizedTotal.WithLabelValues(locale)); got != 1 {
				t.Errorf("pages localized[%s] = %v, want 1", locale, got)
			}
		})
	}
}

func TestServeSitePaths(t *testing.T) {
	srv := newTestServer(t, Config{Base: "/WowPlaybook/"})

	tests := []struct {
		target string
		code   int
	}{
		{"/WowPlaybook/", http.StatusOK},
		{"/WowPlaybook/intro", http.StatusOK},
		{"/WowPlaybook/LegionRemix/", http.StatusOK},
		{"/WowPlaybook/LegionRemix/DruidBalance", http.StatusOK},
		{"/WowPlaybook/style.css", http.StatusOK},
		{"/WowPlaybook/missing.html", http.StatusNotFound},
		{"/WowPlaybook/../../etc/passwd", http.StatusNotFound},
		{"/", http.StatusFound},
		{"/WowPlaybook", http.StatusMovedPermanently},
	}
	for _, tt := range tests {
		if w := get(srv, tt.target); w.Code != tt.code {
			t.Errorf("GET %s = %d, want %d", tt.target, w.Code, tt.code)
		}
	}
}

func TestLiveFlagInjected(t *testing.T) {
	srv := newTestServer(t, Config{Live: true})

	body := get(srv, "/intro.html").Body.String()
	head := body[:strings.Index(body, "</head>")]
	if !strings.Contains(head, liveFlag) {
		t.Errorf("expected live flag in head: %s", head)
	}
}

func TestLanguageEndpoint(t *testing.T) {
	m := metrics.NewMetrics("test", runtime.Version())
	srv := newTestServer(t, Config{}, WithMetrics(m))

	req := httptest.NewRequest("POST", "/api/language", strings.NewReader(`{"language":"tw"}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp languageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Language != "tw" || resp.Locale != "tw" {
		t.Errorf("response = %+v", resp)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == localize.StorageKey {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != "tw" {
		t.Fatalf("expected preference cookie, got %v", w.Result().Cookies())
	}
	if got := testutil.ToFloat64(m.LanguageChangeTotal.WithLabelValues("tw")); got != 1 {
		t.Errorf("language changes = %v, want 1", got)
	}

	// The cookie localizes the next page.
	if body := get(srv, "/intro.html", cookie).Body.String(); !strings.Contains(body, "domain=tw") {
		t.Error("expected page on tw after switching")
	}
}

func TestLanguageEndpointRejectsInvalid(t *testing.T) {
	srv := newTestServer(t, Config{})

	for _, body := range []string{`{"language":"fr"}`, `{"language":""}`, `not json`} {
		req := httptest.NewRequest("POST", "/api/language", strings.NewReader(body))
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Errorf("body %q: no cookie should be set", body)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewMetrics("test", runtime.Version())
	srv := newTestServer(t, Config{}, WithMetrics(m))

	get(srv, "/healthz")
	w := get(srv, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `wowplaybook_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Errorf("expected request counter, got %s", w.Body.String())
	}
}

func TestLiveLanguageChangeRefreshesTabs(t *testing.T) {
	srv := newTestServer(t, Config{Live: true, PollInterval: 10 * time.Millisecond})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() live.Message {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var m live.Message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		return m
	}

	if m := read(); m.Type != live.TypeHello {
		t.Fatalf("first message = %+v, want hello", m)
	}

	resp, err := http.Post(ts.URL+"/api/language", "application/json", strings.NewReader(`{"language":"en"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if m := read(); m.Type != live.TypeLanguageChange || m.Language != "en" {
		t.Fatalf("message = %+v, want language-change en", m)
	}

	// The refresh waits until the tab reports the widget has loaded.
	if err := conn.WriteJSON(live.Message{Type: live.TypeWidgetReady}); err != nil {
		t.Fatal(err)
	}
	if m := read(); m.Type != live.TypeRefreshLinks {
		t.Fatalf("message = %+v, want refresh-links", m)
	}
}

func TestReloadBroadcast(t *testing.T) {
	srv := newTestServer(t, Config{Live: true})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var m live.Message
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if err := conn.ReadJSON(&m); err != nil || m.Type != live.TypeHello {
		t.Fatalf("hello: %+v, %v", m, err)
	}

	srv.Reload()
	if err := conn.ReadJSON(&m); err != nil || m.Type != live.TypeReload {
		t.Fatalf("reload: %+v, %v", m, err)
	}
}

func TestNoHubWithoutLive(t *testing.T) {
	srv := newTestServer(t, Config{})
	if srv.Hub() != nil {
		t.Error("hub should be nil outside live mode")
	}
	if h := srv.RefreshTooltips(); h != nil {
		t.Error("refresh should be skipped without a hub")
	}
	srv.Reload()

	if w := get(srv, "/ws"); w.Code == http.StatusSwitchingProtocols {
		t.Error("websocket should not be served outside live mode")
	}
}
