// Command revlens-profiles rebuilds the product profile cache and prints
// sample recommendations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/pkg/revlens"
	"github.com/cognicore/revlens/pkg/revlens/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (default: $CONFIG_PATH or ./revlens.yaml)")
		customers  = flag.String("customers", "", "Comma-separated customer ids to print recommendations for")
		topN       = flag.Int("top", 5, "Recommendations per customer")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	cfg.InitLogging()
	log := logging.Component("main")

	ids, err := parseIDs(*customers)
	if err != nil {
		log.Fatal().Err(err).Msg("parse -customers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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

	start := time.Now()
	snap, err := engine.RebuildProfiles(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("rebuild product profiles")
	}
	fmt.Printf("Built %d product profiles in %s (snapshot %s)\n",
		len(snap.Profiles), time.Since(start).Round(time.Millisecond), snap.ID)

	for _, id := range ids {
		recs, err := engine.Recommend(ctx, id, *topN, true)
		if err != nil {
			log.Fatal().Err(err).Int64("customer", id).Msg("recommend")
		}
		fmt.Printf("\nCustomer %d\n", id)
		if len(recs) == 0 {
			fmt.Println("  no recommendations (no positive reviews)")
			continue
		}
		for i, r := range recs {
			fmt.Printf("  %d. %s [%s] similarity=%.4f rating=%.2f reviews=%d\n",
				i+1, r.ProductName, r.Category, r.SimilarityScore, r.AverageRating, r.ReviewCount)
		}
	}
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("customer id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
