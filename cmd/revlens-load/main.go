// Command revlens-load imports customers, products and reviews exports into
// the review database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/cognicore/revlens/internal/dataload"
	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/pkg/revlens/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (default: $CONFIG_PATH or ./revlens.yaml)")
		dir        = flag.String("dir", "data", "Directory with customers.csv, products.csv and reviews.csv or reviews.jsonl")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	cfg.InitLogging()
	log := logging.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer st.Close()

	stats, err := dataload.New(st).LoadDir(ctx, *dir)
	if err != nil {
		log.Fatal().Err(err).Msg("load data")
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-16s loaded=%d skipped=%d\n", name, stats[name].Loaded, stats[name].Skipped)
	}

	o, err := st.Overview(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("overview")
	}
	fmt.Printf("\ncustomers=%d products=%d reviews=%d avg_rating=%.2f\n",
		o.TotalCustomers, o.TotalProducts, o.TotalReviews, o.AverageRating)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
