package config

import (
	"github.com/gateswong/wowplaybook/internal/localize"
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// DefaultExcludes are glob patterns under the docs directory that are never
// rendered.
var DefaultExcludes = []string{
	".vitepress/**",
	"node_modules/**",
	".git/**",
	"**/drafts/**",
	"**/_*.md",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Title:       "魔兽世界手记",
		Description: "魔兽世界攻略文档",
		Base:        "/WowPlaybook/",
		Appearance:  "dark",
		DocsDir:     "docs",
		OutputDir:   "site",
		Include:     []string{"**/*.md"},
		Exclude:     append([]string(nil), DefaultExcludes...),
		Language:    string(wowhead.DefaultLanguage),
		Widget: WidgetConfig{
			ScriptURL:      localize.WidgetScriptURL,
			Config:         localize.WidgetConfig,
			PollIntervalMS: 100,
		},
		Nav: []NavItem{
			{Text: "首页", Link: "/"},
			{Text: "新闻和消息", Link: "/news"},
		},
		Sidebar: []SidebarGroup{
			{Text: "导航", Items: []NavItem{
				{Text: "介绍", Link: "/intro"},
				{Text: "新闻和消息", Link: "/news"},
			}},
		},
		SocialLinks: []SocialLink{
			{Icon: "github", Link: "https://github.com/gateswong/wowplaybook"},
		},
		MaxConcurrency: 4,
		Port:           8080,
	}
}
