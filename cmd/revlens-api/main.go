// Command revlens-api serves recommendations, negative review analysis and
// dataset statistics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cognicore/revlens/internal/api"
	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/pkg/revlens"
	"github.com/cognicore/revlens/pkg/revlens/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (default: $CONFIG_PATH or ./revlens.yaml)")
		addr       = flag.String("addr", "", "Listen address, overrides server.addr")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	cfg.InitLogging()
	log := logging.Component("main")
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp, err := cfg.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build components")
	}
	defer comp.Close()

	engine := revlens.New(revlens.Options{
		Store:         comp.Store,
		Analyzer:      comp.Analyzer,
		Lexicon:       comp.Lexicon,
		Taxonomy:      comp.Taxonomy,
		Cache:         comp.Cache,
		Workers:       cfg.Profile.Workers,
		ProgressEvery: cfg.Profile.ProgressEvery,
	})

	// Warm the product profile cache before accepting traffic.
	snap, err := engine.LoadProfiles(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load product profiles")
	}
	log.Info().Str("snapshot", snap.ID).Int("products", len(snap.Profiles)).Msg("product profiles ready")

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewServer(engine, api.Options{}).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
