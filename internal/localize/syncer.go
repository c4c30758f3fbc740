package localize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gateswong/wowplaybook/internal/wowhead"
)

const (
	// WidgetScriptURL is the externally hosted tooltip widget.
	WidgetScriptURL = "https://wow.zamimg.com/widgets/power.js"
	// WidgetConfig configures the widget before it loads.
	WidgetConfig = "const whTooltips = {colorLinks: true, iconizeLinks: true, renameLinks: true};"
)

// WidgetScripts returns the config script followed by the widget loader.
func WidgetScripts(scriptURL, config string) []Script {
	if scriptURL == "" {
		scriptURL = WidgetScriptURL
	}
	if config == "" {
		config = WidgetConfig
	}
	return []Script{
		{Inline: config},
		{Src: scriptURL, Async: true},
	}
}

// Options configure a Syncer.
type Options struct {
	Storage Storage
	// Widget may be nil, in which case refresh requests are skipped.
	Widget Widget
	// Scripts are injected into the head once per session.
	Scripts []Script
	// Gate guards script injection; a fresh gate is used when nil.
	Gate      *Gate
	Refresher *Refresher
	Logger    *slog.Logger
}

// Syncer is one page session of link localization: it injects the widget,
// keeps link metadata on the preferred locale and re-synchronizes whenever
// links are inserted, the route changes or the language changes.
type Syncer struct {
	doc      Document
	observer *Observer
	opts     Options

	mu          sync.Mutex
	unsubscribe func()
}

// New returns a Syncer for doc. observer may be nil when the document
// never changes after bootstrap.
func New(doc Document, observer *Observer, opts Options) *Syncer {
	if opts.Gate == nil {
		opts.Gate = &Gate{}
	}
	if opts.Refresher == nil {
		opts.Refresher = &Refresher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Scripts == nil {
		opts.Scripts = WidgetScripts("", "")
	}
	return &Syncer{doc: doc, observer: observer, opts: opts}
}

// Locale resolves the current preference.
func (s *Syncer) Locale() wowhead.Locale {
	return ResolvePreferredLocale(s.opts.Storage)
}

// Bootstrap injects the widget scripts once, synchronizes immediately so no
// link is ever shown with a stale locale, and starts watching insertions.
func (s *Syncer) Bootstrap(ctx context.Context) error {
	if s.opts.Gate.Pass() {
		for _, sc := range s.opts.Scripts {
			if err := s.doc.AppendHeadScript(sc); err != nil {
				s.opts.Gate.Reset()
				return fmt.Errorf("injecting widget script: %w", err)
			}
		}
	}

	s.SynchronizeAll()

	if s.observer == nil {
		return nil
	}
	s.mu.Lock()
	if s.unsubscribe == nil {
		s.unsubscribe = s.observer.OnNodesInserted(func(nodes []Node) {
			if !anyLink(nodes) {
				return
			}
			s.SynchronizeAll()
			s.RequestTooltipRefresh(ctx)
		})
	}
	s.mu.Unlock()
	s.observer.Start()
	return nil
}

// SynchronizeAll puts every link on the preferred locale.
func (s *Syncer) SynchronizeAll() {
	locale := s.Locale()
	SynchronizeAll(s.doc, locale)
	s.opts.Logger.Debug("links synchronized", "locale", locale)
}

// RequestTooltipRefresh asks the widget to re-scan once it has loaded. It
// returns nil when there is no widget.
func (s *Syncer) RequestTooltipRefresh(ctx context.Context) *RefreshHandle {
	if s.opts.Widget == nil {
		return nil
	}
	return s.opts.Refresher.Request(ctx, s.opts.Widget)
}

// OnRouteChange re-synchronizes after client-side navigation.
func (s *Syncer) OnRouteChange(ctx context.Context) *RefreshHandle {
	s.SynchronizeAll()
	return s.RequestTooltipRefresh(ctx)
}

// OnLanguageChange re-synchronizes after the reader picked a language.
func (s *Syncer) OnLanguageChange(ctx context.Context) *RefreshHandle {
	s.SynchronizeAll()
	return s.RequestTooltipRefresh(ctx)
}

// Close stops watching insertions and cancels any pending refresh.
func (s *Syncer) Close() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mu.Unlock()
	if s.observer != nil {
		s.observer.Stop()
	}
	s.opts.Refresher.Stop()
}
