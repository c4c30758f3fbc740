package config

// NavItem is a link in the top navigation or a sidebar group. Link is a
// site path such as "/news" or "/LegionRemix/DruidBalance".
type NavItem struct {
	Text string `yaml:"text" koanf:"text"`
	Link string `yaml:"link" koanf:"link"`
}

// SidebarGroup is a titled list of sidebar links.
type SidebarGroup struct {
	Text  string    `yaml:"text" koanf:"text"`
	Items []NavItem `yaml:"items" koanf:"items"`
}

// SocialLink is an icon link shown in the top bar.
type SocialLink struct {
	Icon string `yaml:"icon" koanf:"icon"`
	Link string `yaml:"link" koanf:"link"`
}

// WidgetConfig controls the Wowhead tooltip widget.
type WidgetConfig struct {
	ScriptURL      string `yaml:"script_url" koanf:"script_url"`
	Config         string `yaml:"config" koanf:"config"`
	PollIntervalMS int    `yaml:"poll_interval_ms" koanf:"poll_interval_ms"`
	// PollTimeoutMS bounds a refresh request; zero waits until canceled.
	PollTimeoutMS int `yaml:"poll_timeout_ms" koanf:"poll_timeout_ms"`
}

// Config is the top-level wowplaybook configuration, corresponding to .wowplaybook.yml.
type Config struct {
	Title       string `yaml:"title" koanf:"title"`
	Description string `yaml:"description" koanf:"description"`
	// Base is the URL prefix the site is published under, e.g. "/WowPlaybook/".
	Base           string         `yaml:"base" koanf:"base"`
	Appearance     string         `yaml:"appearance" koanf:"appearance"`
	DocsDir        string         `yaml:"docs_dir" koanf:"docs_dir"`
	OutputDir      string         `yaml:"output_dir" koanf:"output_dir"`
	Include        []string       `yaml:"include" koanf:"include"`
	Exclude        []string       `yaml:"exclude" koanf:"exclude"`
	Language       string         `yaml:"language" koanf:"language"`
	Widget         WidgetConfig   `yaml:"widget" koanf:"widget"`
	Nav            []NavItem      `yaml:"nav" koanf:"nav"`
	Sidebar        []SidebarGroup `yaml:"sidebar" koanf:"sidebar"`
	SocialLinks    []SocialLink   `yaml:"social_links" koanf:"social_links"`
	MaxConcurrency int            `yaml:"max_concurrency" koanf:"max_concurrency"`
	Port           int            `yaml:"port" koanf:"port"`
}
