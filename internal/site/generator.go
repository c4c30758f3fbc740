package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"github.com/gateswong/wowplaybook/internal/config"
	"github.com/gateswong/wowplaybook/internal/htmldoc"
	"github.com/gateswong/wowplaybook/internal/localize"
	"github.com/gateswong/wowplaybook/internal/markdown"
	"github.com/gateswong/wowplaybook/internal/metrics"
	"github.com/gateswong/wowplaybook/internal/progress"
	"github.com/gateswong/wowplaybook/internal/walker"
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// contentID is the element rendered markdown is appended to.
const contentID = "content"

// Generator converts the markdown docs directory into a static HTML site.
type Generator struct {
	cfg      *config.Config
	logger   *slog.Logger
	reporter progress.Reporter
	metrics  *metrics.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(g *Generator) { g.logger = l } }

// WithReporter sets the progress reporter; progress is discarded otherwise.
func WithReporter(r progress.Reporter) Option { return func(g *Generator) { g.reporter = r } }

// WithMetrics records build metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(g *Generator) { g.metrics = m } }

// NewGenerator creates a Generator for cfg.
func NewGenerator(cfg *config.Config, opts ...Option) *Generator {
	g := &Generator{cfg: cfg, logger: slog.Default(), reporter: progress.Nop{}}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Result summarizes a build.
type Result struct {
	Pages    int
	Assets   int
	Links    int
	Duration time.Duration
}

// pageData holds the data passed to the HTML template for each page.
type pageData struct {
	Title       string
	SiteTitle   string
	Description string
	Base        string
	Appearance  string
	HTMLLang    string
	Nav         []navLink
	SocialLinks []config.SocialLink
	Languages   []languageOption
	Sidebar     template.HTML
}

// build is the state shared by the pages of one Generate call.
type build struct {
	md       goldmark.Markdown
	tmpl     *template.Template
	tree     *FileTree
	titles   map[string]string
	language wowhead.Language
}

// Generate builds the full site into the output directory.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	start := time.Now()
	cfg := g.cfg

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: cfg.DocsDir,
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return Result{}, fmt.Errorf("walking docs dir: %w", err)
	}
	pages := walker.Pages(files)
	if len(pages) == 0 {
		return Result{}, fmt.Errorf("no markdown files found in %s", cfg.DocsDir)
	}

	sources := make(map[string][]byte, len(pages))
	titles := make(map[string]string, len(pages))
	for _, p := range pages {
		src, err := os.ReadFile(p.Path)
		if err != nil {
			return Result{}, fmt.Errorf("reading %s: %w", p.RelPath, err)
		}
		sources[p.RelPath] = src
		titles[p.RelPath] = extractTitle(src, p.RelPath)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Result{}, err
	}
	if err := writeFile(filepath.Join(cfg.OutputDir, "style.css"), []byte(cssContent)); err != nil {
		return Result{}, err
	}
	if err := writeFile(filepath.Join(cfg.OutputDir, "script.js"), []byte(jsContent)); err != nil {
		return Result{}, err
	}

	entries := make([]SearchEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, BuildSearchEntry(p, sources[p.RelPath], cfg.Base))
	}
	if err := WriteSearchIndex(entries, filepath.Join(cfg.OutputDir, "search-index.json")); err != nil {
		return Result{}, fmt.Errorf("writing search index: %w", err)
	}

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return Result{}, fmt.Errorf("parsing page template: %w", err)
	}

	language := cfg.BuildLanguage()
	b := &build{
		md:       markdown.New(wowhead.LocaleFor(string(language))),
		tmpl:     tmpl,
		tree:     BuildTree(pages, titles),
		titles:   titles,
		language: language,
	}

	limit := cfg.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}

	var (
		done  atomic.Int64
		links atomic.Int64
	)
	g.reporter.Start(len(pages))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, p := range pages {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out, n, err := g.renderPage(egCtx, b, p, sources[p.RelPath])
			if err != nil {
				return fmt.Errorf("rendering %s: %w", p.RelPath, err)
			}
			if err := writeFile(filepath.Join(cfg.OutputDir, filepath.FromSlash(p.OutputPath())), out); err != nil {
				return err
			}
			links.Add(int64(n))
			g.reporter.Update(int(done.Add(1)), p.RelPath)
			return nil
		})
	}
	err = eg.Wait()
	g.reporter.Finish()
	if err != nil {
		return Result{}, err
	}

	assets := 0
	for _, f := range files {
		if f.Kind != walker.KindAsset {
			continue
		}
		if err := copyFile(f.Path, filepath.Join(cfg.OutputDir, filepath.FromSlash(f.OutputPath()))); err != nil {
			return Result{}, fmt.Errorf("copying %s: %w", f.RelPath, err)
		}
		assets++
	}

	res := Result{
		Pages:    len(pages),
		Assets:   assets,
		Links:    int(links.Load()),
		Duration: time.Since(start),
	}
	if g.metrics != nil {
		g.metrics.BuildDurationSeconds.Observe(res.Duration.Seconds())
	}
	g.logger.Info("site built", "pages", res.Pages, "assets", res.Assets, "links", res.Links, "output", cfg.OutputDir, "duration", res.Duration)
	return res, nil
}

// renderPage renders one markdown page into a complete HTML document with
// the tooltip widget injected and every link on the build language. It
// returns the document and the number of Wowhead links it contains.
func (g *Generator) renderPage(ctx context.Context, b *build, page walker.FileInfo, src []byte) ([]byte, int, error) {
	cfg := g.cfg

	content, err := markdown.Render(b.md, src)
	if err != nil {
		return nil, 0, fmt.Errorf("converting markdown: %w", err)
	}

	route := page.Route()
	sidebar := b.tree.ToHTML(page.RelPath, cfg.Base)
	if len(cfg.Sidebar) > 0 {
		sidebar = renderSidebar(cfg.Sidebar, cfg.Base, route)
	}

	data := pageData{
		Title:       b.titles[page.RelPath],
		SiteTitle:   cfg.Title,
		Description: cfg.Description,
		Base:        cfg.Base,
		Appearance:  cfg.Appearance,
		HTMLLang:    htmlLangs[b.language],
		Nav:         navLinks(cfg.Nav, cfg.Base, route),
		SocialLinks: cfg.SocialLinks,
		Languages:   languageOptions(b.language),
		Sidebar:     sidebar,
	}
	if route == "" {
		data.Title = ""
	}

	var shell bytes.Buffer
	if err := b.tmpl.Execute(&shell, data); err != nil {
		return nil, 0, fmt.Errorf("executing template: %w", err)
	}

	doc, err := htmldoc.Parse(&shell)
	if err != nil {
		return nil, 0, err
	}

	// Bootstrap against the empty shell, then insert the content so the
	// observer synchronizes it the way the browser does on navigation.
	observer := localize.NewObserver()
	doc.Observe(observer)
	syncer := localize.New(doc, observer, localize.Options{
		Storage: localize.LanguageStorage(b.language),
		Scripts: localize.WidgetScripts(cfg.Widget.ScriptURL, cfg.Widget.Config),
		Logger:  g.logger.With("page", page.RelPath),
	})
	defer syncer.Close()

	if err := syncer.Bootstrap(ctx); err != nil {
		return nil, 0, err
	}
	article := doc.ElementByID(contentID)
	if err := doc.AppendFragment(article, content); err != nil {
		return nil, 0, err
	}
	doc.RewriteHrefs(article, func(href string) string { return resolveHref(cfg.Base, href) })

	n := 0
	for typ, count := range doc.LinkTypes() {
		n += count
		if g.metrics != nil {
			g.metrics.LinksRenderedTotal.WithLabelValues(typ).Add(float64(count))
		}
	}
	if g.metrics != nil {
		g.metrics.PagesRenderedTotal.Inc()
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, 0, err
	}
	return out, n, nil
}

// writeFile writes data, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
