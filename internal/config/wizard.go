package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// languageLabels describes each supported language in the wizard.
var languageLabels = map[wowhead.Language]string{
	wowhead.LanguageCN: "cn: 简体中文 (cn.wowhead.com)",
	wowhead.LanguageEN: "en: English (www.wowhead.com)",
	wowhead.LanguageTW: "tw: 繁體中文 (tw.wowhead.com)",
}

// detectDocsDir returns the first conventional docs directory that exists.
func detectDocsDir() string {
	for _, dir := range []string{"docs", "content", "wiki"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "docs"
}

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to wowplaybook! Let's configure your site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Title.
	titlePrompt := promptui.Prompt{
		Label:   "Site title",
		Default: cfg.Title,
	}
	title, err := titlePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	cfg.Title = strings.TrimSpace(title)

	// 2. Docs directory.
	docsPrompt := promptui.Prompt{
		Label:   "Markdown docs directory",
		Default: detectDocsDir(),
	}
	docsDir, err := docsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("docs dir: %w", err)
	}
	cfg.DocsDir = filepath.Clean(docsDir)

	// 3. Output directory.
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for the generated site",
		Default: cfg.OutputDir,
	}
	outputDir, err := outputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	cfg.OutputDir = filepath.Clean(outputDir)

	// 4. Base path.
	basePrompt := promptui.Prompt{
		Label:   "Base path the site is published under",
		Default: cfg.Base,
		Validate: func(s string) error {
			if !strings.HasPrefix(s, "/") || !strings.HasSuffix(s, "/") {
				return fmt.Errorf("must start and end with /")
			}
			return nil
		},
	}
	base, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base: %w", err)
	}
	cfg.Base = base

	// 5. Default link language.
	langs := wowhead.Languages()
	items := make([]string, len(langs))
	for i, l := range langs {
		items[i] = languageLabels[l]
	}
	langPrompt := promptui.Select{
		Label: "Default Wowhead language",
		Items: items,
	}
	langIdx, _, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("language selection: %w", err)
	}
	cfg.Language = string(langs[langIdx])

	// 6. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Exclude = append(append([]string{}, DefaultExcludes...), splitAndTrim(excludeStr)...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
