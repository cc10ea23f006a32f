package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/observability"
	"github.com/IshaanNene/carousell-scraper/internal/search"
	"github.com/IshaanNene/carousell-scraper/internal/web"
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search form and JSON API",
		Long: `Serve a web form for searching Carousell.sg, plus:

  GET /api/search?q=&max=      JSON results
  GET /api/search.csv?q=&max=  CSV download
  GET /api/health              liveness`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if cmd.Flags().Changed("addr") {
					c.Web.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", ":8501", "listen address")
	return cmd
}

func runServe(cfg *config.Config) error {
	logger := setupLogger(cfg.Logging)
	ctx, stop := signalContext()
	defer stop()

	metrics := observability.NewMetrics(logger)
	searcher, err := search.New(cfg, logger, search.WithMetrics(metrics))
	if err != nil {
		return err
	}
	srv := web.NewServer(searcher, cfg.Web, cfg.Marketplace.MaxResults, metrics, logger)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gCtx)
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			ms := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
			<-gCtx.Done()
			return ms.Stop(context.Background())
		})
	}

	fmt.Printf("Carousell search running at http://localhost%s\n", cfg.Web.Addr)
	return g.Wait()
}
