package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gateswong/wowplaybook/internal/metrics"
	"github.com/gateswong/wowplaybook/internal/server"
	"github.com/gateswong/wowplaybook/internal/site"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the site and serve it locally",
	Long: `Builds the site and starts a local preview server. Pages are served on
the language stored in the reader's preference cookie. With --watch the site
is rebuilt on every change and open tabs reload over a websocket.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "port for the preview server (defaults to config port)")
	serveCmd.Flags().Bool("watch", false, "rebuild on changes and live-reload open tabs")
	serveCmd.Flags().Bool("open", false, "open browser automatically")
	serveCmd.Flags().Bool("no-build", false, "serve the existing output without building first")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}
	watch, _ := cmd.Flags().GetBool("watch")
	open, _ := cmd.Flags().GetBool("open")
	noBuild, _ := cmd.Flags().GetBool("no-build")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	m := metrics.NewMetrics(Version, runtime.Version())
	gen := site.NewGenerator(cfg, site.WithLogger(logger), site.WithMetrics(m))

	if !noBuild {
		if _, err := gen.Generate(ctx); err != nil {
			return fmt.Errorf("building site: %w", err)
		}
	}

	srv := server.New(server.Config{
		Port:         cfg.Port,
		SiteDir:      cfg.OutputDir,
		Base:         cfg.Base,
		Live:         watch,
		PollInterval: cfg.Widget.PollInterval(),
		PollTimeout:  cfg.Widget.PollTimeout(),
	}, server.WithLogger(logger), server.WithMetrics(m))

	url := fmt.Sprintf("http://localhost:%d%s", cfg.Port, cfg.Base)
	fmt.Printf("Serving %s at %s\n", cfg.OutputDir, url)
	fmt.Println("Press Ctrl+C to stop.")
	if open {
		go server.OpenBrowser(url)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if watch {
		w := &site.Watcher{
			Dir:    cfg.DocsDir,
			Logger: logger,
			OnChange: func(ctx context.Context) error {
				if _, err := gen.Generate(ctx); err != nil {
					return err
				}
				srv.Reload()
				srv.RefreshTooltips()
				return nil
			},
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
