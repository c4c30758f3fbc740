package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gateswong/wowplaybook/internal/htmldoc"
	"github.com/gateswong/wowplaybook/internal/live"
	"github.com/gateswong/wowplaybook/internal/localize"
	"github.com/gateswong/wowplaybook/internal/metrics"
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// liveFlag tells the page script to connect to the live channel.
const liveFlag = "window.wowplaybookLive = true;"

// Config holds server configuration.
type Config struct {
	Port     int
	SiteDir  string // directory containing the generated site
	Base     string // URL prefix the site is served under, e.g. /WowPlaybook/
	Live     bool   // enable the live channel and reload-on-change
	AllowAll bool   // allow all CORS origins (dev mode)

	// Refresh polling; zero values use the localize defaults.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Server is the local preview server for a generated site.
type Server struct {
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	hub        *live.Hub
	refresher  *localize.Refresher
	router     chi.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMetrics records request and localization metrics and serves them on
// /metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithHub uses h as the live channel instead of creating one.
func WithHub(h *live.Hub) Option { return func(s *Server) { s.hub = h } }

// New creates a preview server for cfg.SiteDir.
func New(cfg Config, opts ...Option) *Server {
	if cfg.Base == "" {
		cfg.Base = "/"
	}
	s := &Server{cfg: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if cfg.Live && s.hub == nil {
		s.hub = live.NewHub(s.logger)
	}
	s.refresher = &localize.Refresher{
		Interval: cfg.PollInterval,
		Timeout:  cfg.PollTimeout,
		OnResult: func(r localize.RefreshResult) {
			s.logger.Debug("tooltip refresh finished", "result", r.String())
			if s.metrics != nil {
				s.metrics.TooltipRefreshTotal.WithLabelValues(r.String()).Inc()
			}
		},
	}
	if s.hub != nil && s.metrics != nil {
		s.hub.OnClients = func(n int) { s.metrics.LiveClients.Set(float64(n)) }
	}
	if s.hub != nil && s.hub.OnLanguageChange == nil {
		s.hub.OnLanguageChange = func(lang wowhead.Language) {
			s.countLanguageChange(lang)
			s.RefreshTooltips()
		}
	}

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&logFormatter{logger: s.logger}))
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.instrument)
	}

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// The websocket outlives any request timeout.
	if s.hub != nil {
		r.Handle("/ws", s.hub)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		if s.metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}

		r.Post("/api/language", s.handleLanguage)

		if s.cfg.Base != "/" {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, s.cfg.Base, http.StatusFound)
			})
			r.Get(strings.TrimSuffix(s.cfg.Base, "/"), func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, s.cfg.Base, http.StatusMovedPermanently)
			})
		}
		r.Get(s.cfg.Base+"*", s.handleSite)
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Hub returns the live channel, or nil when live mode is off.
func (s *Server) Hub() *live.Hub { return s.hub }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Reload tells every open tab to reload the page.
func (s *Server) Reload() {
	if s.hub != nil {
		s.hub.Broadcast(live.Message{Type: live.TypeReload})
	}
}

// RefreshTooltips asks the tabs to re-scan their links once the widget has
// loaded. A newer request replaces a pending one.
func (s *Server) RefreshTooltips() *localize.RefreshHandle {
	if s.hub == nil {
		return nil
	}
	return s.refresher.Request(s.ctx, s.hub)
}

type languageRequest struct {
	Language string `json:"language"`
}

type languageResponse struct {
	Language string `json:"language"`
	Locale   string `json:"locale"`
}

// handleLanguage stores the reader's language in a cookie and pushes the
// change to every open tab.
func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !wowhead.IsLanguage(req.Language) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown language %q", req.Language)})
		return
	}
	lang := wowhead.Language(req.Language)

	http.SetCookie(w, localize.PreferenceCookie(lang))
	s.countLanguageChange(lang)
	if s.hub != nil {
		s.hub.Broadcast(live.Message{Type: live.TypeLanguageChange, Language: string(lang)})
		s.RefreshTooltips()
	}

	writeJSON(w, http.StatusOK, languageResponse{Language: string(lang), Locale: string(wowhead.LocaleFor(string(lang)))})
}

func (s *Server) countLanguageChange(lang wowhead.Language) {
	s.logger.Info("language changed", "language", lang)
	if s.metrics != nil {
		s.metrics.LanguageChangeTotal.WithLabelValues(string(lang)).Inc()
	}
}

// handleSite serves the generated site. Pages are localized to the
// reader's stored language before they are sent.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + strings.TrimPrefix(r.URL.Path, s.cfg.Base))
	name := filepath.Join(s.cfg.SiteDir, filepath.FromSlash(rel))

	info, err := os.Stat(name)
	switch {
	case err == nil && info.IsDir():
		name = filepath.Join(name, "index.html")
	case errors.Is(err, os.ErrNotExist) && path.Ext(rel) == "":
		// Clean URLs: /intro serves intro.html.
		name += ".html"
	}

	info, err = os.Stat(name)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	if filepath.Ext(name) != ".html" {
		http.ServeFile(w, r, name)
		return
	}
	s.servePage(w, r, name)
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, name string) {
	data, err := os.ReadFile(name)
	if err != nil {
		http.Error(w, "reading page", http.StatusInternalServerError)
		return
	}
	doc, err := htmldoc.ParseBytes(data)
	if err != nil {
		s.logger.Error("parsing page", "path", name, "error", err)
		http.Error(w, "parsing page", http.StatusInternalServerError)
		return
	}

	if s.cfg.Live {
		if err := doc.AppendHeadScript(localize.Script{Inline: liveFlag}); err != nil {
			s.logger.Warn("injecting live flag", "path", name, "error", err)
		}
	}

	locale := localize.ResolvePreferredLocale(localize.CookieStorage{Request: r})
	localize.SynchronizeAll(doc, locale)
	if s.metrics != nil {
		s.metrics.PagesLocalizedTotal.WithLabelValues(string(locale)).Inc()
	}

	out, err := doc.Bytes()
	if err != nil {
		http.Error(w, "rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(out)
}

// instrument records request counts and durations by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		s.metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
	})
}

// Start begins listening on the configured port. It returns nil after
// Shutdown.
func (s *Server) Start() error {
	s.logger.Info("wowplaybook preview server listening", "addr", s.httpServer.Addr, "base", s.cfg.Base, "live", s.cfg.Live)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.refresher.Stop()
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OpenBrowser opens the given URL in the default browser.
func OpenBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
