// Command revlens-report writes the product improvement priority report as
// JSON and CSV and prints a console summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/pkg/revlens"
	"github.com/cognicore/revlens/pkg/revlens/config"
	"github.com/cognicore/revlens/pkg/revlens/report"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (default: $CONFIG_PATH or ./revlens.yaml)")
		outDir     = flag.String("out", "", "Output directory, overrides report.dir")
		topN       = flag.Int("top", 0, "Products in the report, overrides report.top_n")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	cfg.InitLogging()
	log := logging.Component("main")
	if *outDir != "" {
		cfg.Report.Dir = *outDir
	}
	if *topN > 0 {
		cfg.Report.TopN = *topN
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	comp, err := cfg.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build components")
	}
	defer comp.Close()

	engine := revlens.New(revlens.Options{
		Store:    comp.Store,
		Analyzer: comp.Analyzer,
		Lexicon:  comp.Lexicon,
		Taxonomy: comp.Taxonomy,
		Workers:  cfg.Profile.Workers,
	})

	records, err := engine.ImprovementPriority(ctx, cfg.Report.TopN)
	if err != nil {
		log.Fatal().Err(err).Msg("analyze negative reviews")
	}
	if len(records) == 0 {
		fmt.Println("No negative reviews to analyze.")
		return
	}

	rep := report.New(records, time.Now())
	jsonPath, csvPath, err := rep.Save(cfg.Report.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("save report")
	}
	if err := rep.WriteSummary(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("print summary")
	}
	fmt.Printf("\nSaved %s\nSaved %s\n", jsonPath, csvPath)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
