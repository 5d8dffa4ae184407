// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/neighborfit/internal/api"
	"github.com/pdiddy/neighborfit/internal/cache"
	"github.com/pdiddy/neighborfit/internal/catalog"
	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/internal/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP matching API",
	Long: `Serve starts the HTTP API and the cache sweeper under a supervisor.
The static pool comes from the catalog file; with --discover the live pool is
populated from OpenStreetMap in the background and can be refreshed with
POST /api/refresh-neighborhoods.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3001)")
	serveCmd.Flags().String("catalog", "", "candidate file (default catalog.path)")
	serveCmd.Flags().Bool("discover", false, "discover live candidates at startup")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("catalog.path", serveCmd.Flags().Lookup("catalog"))
	_ = viper.BindPFlag("catalog.discover", serveCmd.Flags().Lookup("discover"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logging.Component("serve")

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	static := catalog.New(nil)
	if cfg.Catalog.Path != "" {
		candidates, err := catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		static.Replace(candidates)
		log.Info().Int("candidates", static.Len()).Str("file", cfg.Catalog.Path).Msg("loaded catalog")
	}
	live := catalog.New(nil)

	api.Version = version
	srv := api.New(api.Deps{
		Matcher:    eng.matcher,
		Static:     static,
		Live:       live,
		Discoverer: eng.discoverer,
		Cities:     cfg.Catalog.Cities,
		Store:      eng.store,
		Breakers:   eng.sources.BreakerStates,
	}, cfg.Server)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Catalog.Discover {
		go func() {
			found, err := eng.discoverer.Discover(ctx, cfg.Catalog.Cities)
			if err != nil {
				log.Warn().Err(err).Msg("startup discovery failed; realtime matches use the static pool")
				return
			}
			live.Replace(found)
		}()
	}

	tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddCacheService(cache.NewSweeper(eng.store, cfg.Cache.SweepInterval))
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	log.Info().Str("addr", cfg.Server.Addr).Msg("neighborfit listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("shut down")
	return nil
}
