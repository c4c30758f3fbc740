package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gateswong/wowplaybook/internal/config"
	"github.com/gateswong/wowplaybook/internal/metrics"
	"github.com/gateswong/wowplaybook/internal/walker"
)

// testdataDir returns the absolute path to the testdata/docs directory.
func testdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	abs, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "docs"))
	if err != nil {
		t.Fatalf("resolve testdata path: %v", err)
	}
	return abs
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readOutput(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DocsDir = testdataDir(t)
	cfg.OutputDir = t.TempDir()
	return cfg
}

func generate(t *testing.T, cfg *config.Config, opts ...Option) Result {
	t.Helper()
	res, err := NewGenerator(cfg, opts...).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	return res
}

func TestGenerateWritesSite(t *testing.T) {
	cfg := testConfig(t)
	res := generate(t, cfg)

	if res.Pages != 4 {
		t.Errorf("pages = %d, want 4", res.Pages)
	}
	if res.Assets != 1 {
		t.Errorf("assets = %d, want 1", res.Assets)
	}
	if res.Links != 8 {
		t.Errorf("links = %d, want 8", res.Links)
	}

	for _, f := range []string{
		"index.html",
		"intro.html",
		"news.html",
		"LegionRemix/DruidBalance.html",
		"logo.svg",
		"style.css",
		"script.js",
		"search-index.json",
	} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, filepath.FromSlash(f))); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}

	// Excluded by the default config.
	for _, f := range []string{"drafts/wip.html", "_partial.html"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, filepath.FromSlash(f))); !os.IsNotExist(err) {
			t.Errorf("%s should not be generated", f)
		}
	}
}

func TestGenerateRendersLinks(t *testing.T) {
	cfg := testConfig(t)
	generate(t, cfg)

	html := readOutput(t, cfg.OutputDir, "intro.html")

	checks := []string{
		`<title>介绍 | 魔兽世界手记</title>`,
		`href="https://cn.wowhead.com/spell=8921"`,
		`data-wowhead="spell=8921&amp;domain=cn"`,
		`>月火术</a>`,
		`data-wowhead="spell=93402&amp;domain=cn"`,
		`>s=93402</a>`,
		`data-wh-rename-link="false"`,
		`data-wowhead="item=19019&amp;bonus=1:2&amp;domain=cn"`,
		`>雷霆之怒，逐风者的祝福之剑</a>`,
	}
	for _, c := range checks {
		if !strings.Contains(html, c) {
			t.Errorf("intro.html missing %q", c)
		}
	}
	if strings.Count(html, "domain=") != 3 {
		t.Errorf("expected one domain param per link, got %d", strings.Count(html, "domain="))
	}
}

func TestGenerateInjectsWidgetOnce(t *testing.T) {
	cfg := testConfig(t)
	generate(t, cfg)

	for _, page := range []string{"index.html", "intro.html", "LegionRemix/DruidBalance.html"} {
		html := readOutput(t, cfg.OutputDir, page)
		if n := strings.Count(html, `src="https://wow.zamimg.com/widgets/power.js"`); n != 1 {
			t.Errorf("%s: widget script count = %d, want 1", page, n)
		}
		if n := strings.Count(html, "const whTooltips"); n != 1 {
			t.Errorf("%s: widget config count = %d, want 1", page, n)
		}
		head := html[:strings.Index(html, "</head>")]
		if !strings.Contains(head, "power.js") {
			t.Errorf("%s: widget script should be in head", page)
		}
	}
}

func TestGenerateBuildLanguage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Language = "en"
	generate(t, cfg)

	html := readOutput(t, cfg.OutputDir, "news.html")
	if !strings.Contains(html, `href="https://www.wowhead.com/quest=12345"`) {
		t.Error("expected www mirror href")
	}
	if !strings.Contains(html, `data-wowhead="quest=12345&amp;domain=www"`) {
		t.Error("expected www domain param")
	}
	if strings.Contains(html, "domain=cn") {
		t.Error("no link should stay on cn")
	}
	if !strings.Contains(html, `<option value="en" selected="">English</option>`) {
		t.Error("language select should preselect en")
	}
	if !strings.Contains(html, `<html lang="en"`) {
		t.Error("expected lang=en")
	}
}

func TestGenerateKeepsCodeSpansLiteral(t *testing.T) {
	cfg := testConfig(t)
	generate(t, cfg)

	html := readOutput(t, cfg.OutputDir, "LegionRemix/DruidBalance.html")
	if !strings.Contains(html, `<code>&lt;s=1&gt;</code>`) {
		t.Error("token inside code span should stay literal")
	}
	if strings.Contains(html, "spell=1&amp;") {
		t.Error("token inside code span should not become a link")
	}
}

func TestGenerateRewritesLinks(t *testing.T) {
	cfg := testConfig(t)
	generate(t, cfg)

	index := readOutput(t, cfg.OutputDir, "index.html")
	if !strings.Contains(index, `href="./intro.html"`) || !strings.Contains(index, `href="news.html"`) {
		t.Error("markdown links should point at .html pages")
	}
	if !strings.Contains(index, `<title>魔兽世界手记</title>`) {
		t.Error("home page title should be the site title")
	}

	intro := readOutput(t, cfg.OutputDir, "intro.html")
	if !strings.Contains(intro, `<a href="/WowPlaybook/intro.html" class="active">介绍</a>`) {
		t.Error("configured sidebar should mark the current page active")
	}
	if !strings.Contains(intro, `<a href="/WowPlaybook/news.html">新闻和消息</a>`) {
		t.Error("nav should link under the base path")
	}
	if !strings.Contains(intro, `href="/WowPlaybook/style.css"`) {
		t.Error("stylesheet should be under the base path")
	}
}

func TestGenerateTreeSidebar(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sidebar = nil
	generate(t, cfg)

	html := readOutput(t, cfg.OutputDir, "LegionRemix/DruidBalance.html")
	if !strings.Contains(html, `<span class="dir-label">LegionRemix</span>`) {
		t.Error("tree sidebar should list directories")
	}
	if !strings.Contains(html, `<a href="/WowPlaybook/LegionRemix/DruidBalance.html" class="active">平衡德鲁伊</a>`) {
		t.Error("tree sidebar should mark the current page active")
	}
}

func TestGenerateSearchIndex(t *testing.T) {
	cfg := testConfig(t)
	generate(t, cfg)

	var entries []SearchEntry
	if err := json.Unmarshal([]byte(readOutput(t, cfg.OutputDir, "search-index.json")), &entries); err != nil {
		t.Fatalf("search index: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	for _, e := range entries {
		if e.Path != "/WowPlaybook/intro.html" {
			continue
		}
		if e.Title != "介绍" {
			t.Errorf("title = %q", e.Title)
		}
		if !strings.Contains(e.Content, "月火术") || strings.Contains(e.Content, "<s=") {
			t.Errorf("content should index display text: %q", e.Content)
		}
		return
	}
	t.Error("intro entry not found")
}

func TestGenerateMetrics(t *testing.T) {
	cfg := testConfig(t)
	m := metrics.NewMetrics("test", runtime.Version())
	generate(t, cfg, WithMetrics(m))

	if got := testutil.ToFloat64(m.PagesRenderedTotal); got != 4 {
		t.Errorf("pages rendered = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.LinksRenderedTotal.WithLabelValues("spell")); got != 4 {
		t.Errorf("spell links = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.LinksRenderedTotal.WithLabelValues("npc")); got != 1 {
		t.Errorf("npc links = %v, want 1", got)
	}
}

func TestGenerateReportsProgress(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxConcurrency = 2
	r := &countingReporter{}
	generate(t, cfg, WithReporter(r))

	if r.total != 4 || r.updates.Load() != 4 || !r.finished {
		t.Errorf("reporter saw total=%d updates=%d finished=%v", r.total, r.updates.Load(), r.finished)
	}
}

type countingReporter struct {
	total    int
	updates  atomic.Int32
	finished bool
}

func (r *countingReporter) Start(total int)    { r.total = total }
func (r *countingReporter) Update(int, string) { r.updates.Add(1) }
func (r *countingReporter) Finish()            { r.finished = true }

func TestGenerateNoPages(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DocsDir = t.TempDir()
	cfg.OutputDir = t.TempDir()

	if _, err := NewGenerator(cfg).Generate(context.Background()); err == nil {
		t.Error("expected error for empty docs dir")
	}
}

func TestGenerateCanceled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewGenerator(cfg).Generate(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestBuildTree(t *testing.T) {
	pages := []walker.FileInfo{
		{RelPath: "news.md", Kind: walker.KindPage},
		{RelPath: "LegionRemix/DruidBalance.md", Kind: walker.KindPage},
		{RelPath: "index.md", Kind: walker.KindPage},
		{RelPath: "LegionRemix/index.md", Kind: walker.KindPage},
		{RelPath: "class-guides/mage.md", Kind: walker.KindPage},
	}
	tree := BuildTree(pages, map[string]string{"news.md": "新闻"})

	if tree.Name != "docs" || !tree.IsDir {
		t.Fatalf("root = %+v", tree)
	}

	// Index first, then files, then directories.
	var names []string
	for _, c := range tree.Children {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "index.md,news.md,LegionRemix,class-guides" {
		t.Errorf("root children = %s", got)
	}
	if tree.Children[1].Title != "新闻" {
		t.Errorf("title = %q, want 新闻", tree.Children[1].Title)
	}
	if tree.Children[3].Title != "Class Guides" {
		t.Errorf("dir title = %q, want Class Guides", tree.Children[3].Title)
	}

	remix := tree.Children[2]
	if len(remix.Children) != 2 || remix.Children[0].Name != "index.md" {
		t.Errorf("LegionRemix children = %+v", remix.Children)
	}
}

func TestBuildTreeEmpty(t *testing.T) {
	tree := BuildTree(nil, nil)
	if len(tree.Children) != 0 {
		t.Errorf("empty tree children = %d, want 0", len(tree.Children))
	}
}

func TestTreeToHTML(t *testing.T) {
	pages := []walker.FileInfo{
		{RelPath: "index.md", Kind: walker.KindPage},
		{RelPath: "guides/a&b.md", Kind: walker.KindPage},
	}
	html := string(BuildTree(pages, nil).ToHTML("guides/a&b.md", "/site/"))

	if !strings.Contains(html, `<a href="/site/index.html">index</a>`) {
		t.Errorf("missing home link: %s", html)
	}
	if !strings.Contains(html, `<a href="/site/guides/a&amp;b.html" class="active">a&amp;b</a>`) {
		t.Errorf("missing escaped active link: %s", html)
	}
}

func TestResolveHref(t *testing.T) {
	const base = "/WowPlaybook/"
	tests := []struct {
		href, want string
	}{
		{"intro.md", "intro.html"},
		{"./intro.md#moonfire", "./intro.html#moonfire"},
		{"../news.markdown?x=1", "../news.html?x=1"},
		{"/news", "/WowPlaybook/news.html"},
		{"/news.md", "/WowPlaybook/news.html"},
		{"/", "/WowPlaybook/"},
		{"/LegionRemix/", "/WowPlaybook/LegionRemix/"},
		{"/logo.svg", "/WowPlaybook/logo.svg"},
		{"#top", "#top"},
		{"https://cn.wowhead.com/spell=1", "https://cn.wowhead.com/spell=1"},
		{"mailto:a@b.c", "mailto:a@b.c"},
		{"//cdn.example.com/x.md", "//cdn.example.com/x.md"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := resolveHref(base, tt.href); got != tt.want {
			t.Errorf("resolveHref(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestRouteOf(t *testing.T) {
	tests := []struct {
		link, want string
	}{
		{"/", ""},
		{"/intro", "intro"},
		{"/intro.html", "intro"},
		{"/LegionRemix/DruidBalance", "LegionRemix/DruidBalance"},
		{"/guide/index", "guide/"},
		{"/guide/", "guide/"},
	}
	for _, tt := range tests {
		if got := routeOf(tt.link); got != tt.want {
			t.Errorf("routeOf(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		content string
		relPath string
		want    string
	}{
		{"# My Title\n\nSome text", "file.md", "My Title"},
		{"\n\n# Second Line Title\n", "file.md", "Second Line Title"},
		{"No heading here", "dir/fallback.md", "fallback"},
		{"## Not H1\n# H1 Title", "f.md", "H1 Title"},
		{"# 技能 <s=8921,,月火术>", "f.md", "技能 月火术"},
	}
	for _, tt := range tests {
		if got := extractTitle([]byte(tt.content), tt.relPath); got != tt.want {
			t.Errorf("extractTitle(%q, %q) = %q, want %q", tt.content, tt.relPath, got, tt.want)
		}
	}
}

func TestBuildSearchEntry(t *testing.T) {
	page := walker.FileInfo{RelPath: "guides/mage.md", Kind: walker.KindPage}
	src := "# 法师\n\n使用 <s=133,,火球术> 开怪。\n\n```\n<s=1>\n```\n\n## 细节\n\n更多内容。\n"

	e := BuildSearchEntry(page, []byte(src), "/")
	if e.Path != "/guides/mage.html" {
		t.Errorf("path = %q", e.Path)
	}
	if e.Summary != "使用 火球术 开怪。" {
		t.Errorf("summary = %q", e.Summary)
	}
	if e.Content != "法师 使用 火球术 开怪。 细节 更多内容。" {
		t.Errorf("content = %q", e.Content)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("魔兽世界", 2); got != "魔兽" {
		t.Errorf("truncateRunes = %q, want 魔兽", got)
	}
	if got := truncateRunes("abc", 5); got != "abc" {
		t.Errorf("truncateRunes = %q, want abc", got)
	}
}

func TestWatcherDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.md"), "# a")

	var calls atomic.Int32
	changed := make(chan struct{}, 4)
	w := &Watcher{
		Dir:      dir,
		Debounce: 50 * time.Millisecond,
		OnChange: func(context.Context) error {
			calls.Add(1)
			changed <- struct{}{}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	writeTestFile(t, filepath.Join(dir, "a.md"), "# a2")
	writeTestFile(t, filepath.Join(dir, "b.md"), "# b")
	writeTestFile(t, filepath.Join(dir, "notes.xyz"), "ignored")

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("OnChange was not called")
	}
	time.Sleep(150 * time.Millisecond)

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("OnChange calls = %d, want 1", got)
	}
}
