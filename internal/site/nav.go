package site

import (
	"fmt"
	"html/template"
	"path"
	"strings"

	"github.com/gateswong/wowplaybook/internal/config"
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// languageLabels are the language switch options.
var languageLabels = map[wowhead.Language]string{
	wowhead.LanguageCN: "简体中文",
	wowhead.LanguageEN: "English",
	wowhead.LanguageTW: "繁體中文",
}

// htmlLangs maps a link language to the page's lang attribute.
var htmlLangs = map[wowhead.Language]string{
	wowhead.LanguageCN: "zh-CN",
	wowhead.LanguageEN: "en",
	wowhead.LanguageTW: "zh-TW",
}

type navLink struct {
	Text   string
	Href   string
	Active bool
}

type languageOption struct {
	Value    string
	Label    string
	Selected bool
}

func languageOptions(selected wowhead.Language) []languageOption {
	langs := wowhead.Languages()
	opts := make([]languageOption, len(langs))
	for i, l := range langs {
		opts[i] = languageOption{Value: string(l), Label: languageLabels[l], Selected: l == selected}
	}
	return opts
}

// hasScheme reports whether href is absolute (http:, mailto:, ...).
func hasScheme(href string) bool {
	colon := strings.IndexByte(href, ':')
	if colon <= 0 {
		return false
	}
	return !strings.ContainsAny(href[:colon], "/?#")
}

// resolveHref maps a link written in markdown or config to its URL in the
// generated site. Markdown sources become .html pages, and site-absolute
// paths are placed under base. External URLs and fragments are unchanged.
func resolveHref(base, href string) string {
	if href == "" || hasScheme(href) || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "//") {
		return href
	}

	p, suffix := href, ""
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p, suffix = p[:i], p[i:]
	}

	switch ext := path.Ext(p); ext {
	case ".md", ".markdown":
		p = strings.TrimSuffix(p, ext) + ".html"
	case "":
		if strings.HasPrefix(p, "/") && p != "/" && !strings.HasSuffix(p, "/") {
			p += ".html"
		}
	}

	if strings.HasPrefix(p, "/") {
		p = base + strings.TrimPrefix(p, "/")
	}
	return p + suffix
}

// routeOf returns the page route a config link points at, comparable with
// walker.FileInfo.Route.
func routeOf(link string) string {
	route := strings.TrimPrefix(link, "/")
	route = strings.TrimSuffix(route, ".html")
	route = strings.TrimSuffix(route, ".md")
	if route == "index" || strings.HasSuffix(route, "/index") {
		route = strings.TrimSuffix(route, "index")
	}
	return route
}

func navLinks(items []config.NavItem, base, activeRoute string) []navLink {
	links := make([]navLink, len(items))
	for i, item := range items {
		links[i] = navLink{
			Text:   item.Text,
			Href:   resolveHref(base, item.Link),
			Active: !hasScheme(item.Link) && routeOf(item.Link) == activeRoute,
		}
	}
	return links
}

// renderSidebar renders configured sidebar groups.
func renderSidebar(groups []config.SidebarGroup, base, activeRoute string) template.HTML {
	var b strings.Builder
	for _, g := range groups {
		b.WriteString(`<div class="sidebar-group">` + "\n")
		if g.Text != "" {
			fmt.Fprintf(&b, `<p class="sidebar-group-title">%s</p>`+"\n", template.HTMLEscapeString(g.Text))
		}
		b.WriteString("<ul>\n")
		for _, link := range navLinks(g.Items, base, activeRoute) {
			active := ""
			if link.Active {
				active = ` class="active"`
			}
			fmt.Fprintf(&b, `<li><a href="%s"%s>%s</a></li>`+"\n",
				template.HTMLEscapeString(link.Href), active, template.HTMLEscapeString(link.Text))
		}
		b.WriteString("</ul>\n</div>\n")
	}
	return template.HTML(b.String())
}
