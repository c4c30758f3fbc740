package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gateswong/wowplaybook/internal/site"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the markdown docs into a static site",
	Long: `Renders every markdown page in the docs directory into HTML, expanding
Wowhead reference tokens into tooltip links on the build language.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("output", "", "override output directory")
	buildCmd.Flags().String("language", "", "Wowhead language for links (cn, en, tw)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.OutputDir = out
	}
	lang, _ := cmd.Flags().GetString("language")
	if err := applyLanguageFlag(cfg, lang); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := site.NewGenerator(cfg, site.WithReporter(newReporter())).Generate(ctx)
	if err != nil {
		return fmt.Errorf("building site: %w", err)
	}

	fmt.Printf("Static site generated: %s (%d pages, %d assets, %d links)\n", cfg.OutputDir, res.Pages, res.Assets, res.Links)
	return nil
}
