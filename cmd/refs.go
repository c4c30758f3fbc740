package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/gateswong/wowplaybook/internal/walker"
	"github.com/gateswong/wowplaybook/internal/wowhead"
)

var refsCmd = &cobra.Command{
	Use:   "refs [files...]",
	Short: "List the Wowhead reference tokens in the docs",
	Long: `Lists every reference token in the given markdown files, or in the whole
docs directory, with the link it renders to. Tokens with an unknown
abbreviation are reported as warnings because they render as plain text.`,
	RunE: runRefs,
}

func init() {
	refsCmd.Flags().String("language", "", "Wowhead language for the listed URLs (cn, en, tw)")
	refsCmd.Flags().Bool("unknown", false, "only list tokens with an unknown abbreviation")
	rootCmd.AddCommand(refsCmd)
}

func runRefs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lang, _ := cmd.Flags().GetString("language")
	if err := applyLanguageFlag(cfg, lang); err != nil {
		return err
	}
	unknownOnly, _ := cmd.Flags().GetBool("unknown")
	locale := wowhead.LocaleFor(string(cfg.BuildLanguage()))

	files := args
	if len(files) == 0 {
		found, err := walker.Walk(walker.WalkerConfig{
			RootDir: cfg.DocsDir,
			Include: cfg.Include,
			Exclude: cfg.Exclude,
		})
		if err != nil {
			return err
		}
		for _, f := range walker.Pages(found) {
			files = append(files, filepath.Join(cfg.DocsDir, filepath.FromSlash(f.RelPath)))
		}
	}

	width := terminalWidth(100)
	total, unknown := 0, 0
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		occ, err := wowhead.Scan(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("scanning %s: %w", name, err)
		}

		for _, o := range occ {
			if !o.Known {
				unknown++
				fmt.Fprintf(os.Stderr, "warning: %s:%d:%d: unknown abbreviation in %s, rendered as text\n", name, o.Line, o.Column, o.Raw)
				continue
			}
			total++
			if unknownOnly {
				continue
			}
			fmt.Println(formatRef(name, o, locale, width))
		}
	}

	fmt.Printf("%d references, %d unknown\n", total, unknown)
	return nil
}

// formatRef renders one reference as "file:line:col  token  -> url (text)",
// wrapped to width with continuation lines indented.
func formatRef(name string, o wowhead.Occurrence, locale wowhead.Locale, width int) string {
	l := wowhead.NewLink(o.Reference, locale)
	pos := fmt.Sprintf("%s:%d:%d", name, o.Line, o.Column)
	line := fmt.Sprintf("%s  %s  -> %s (%s)", pos, o.Raw, l.Href, l.Text)
	if ansi.PrintableRuneWidth(line) <= width {
		return line
	}

	const indent = "    "
	wrapped := wordwrap.String(line, width-len(indent))
	lines := strings.Split(wrapped, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}
