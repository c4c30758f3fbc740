package cmd

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/gateswong/wowplaybook/internal/config"
	"github.com/gateswong/wowplaybook/internal/progress"
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `wowplaybook init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// applyLanguageFlag overrides the build language when lang is set.
func applyLanguageFlag(cfg *config.Config, lang string) error {
	if lang == "" {
		return nil
	}
	if !wowhead.IsLanguage(lang) {
		return fmt.Errorf("invalid language %q: must be one of cn, en, tw", lang)
	}
	cfg.Language = lang
	return nil
}

// newReporter picks a progress bar for terminals and line output otherwise.
func newReporter() progress.Reporter {
	if !isTerminal(os.Stderr) {
		return &progress.CIReporter{Out: os.Stderr}
	}
	return progress.NewReporter()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of stdout, or fallback when it is not a
// terminal.
func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}
