// Package negative aggregates keywords from negative reviews per product
// and ranks products by how urgently they need improvement.
package negative

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/internal/metrics"
	"github.com/cognicore/revlens/pkg/revlens/ingest"
	"github.com/cognicore/revlens/pkg/revlens/store"
	"github.com/cognicore/revlens/pkg/revlens/taxonomy"
)

// Limits applied when building priority records.
const (
	FallbackKeywords    = 5 // keywords used when no negative lexicon word is found
	TopKeywordCount     = 5
	TopPerCategoryCount = 3
)

// Counts maps keyword to the number of negative reviews mentioning it.
type Counts map[string]int

// Aggregate maps product id to its negative keyword counts.
type Aggregate map[int64]Counts

// PriorityRecord summarizes one product's negative feedback.
type PriorityRecord struct {
	ProductID                 int64                       `json:"product_id"`
	ProductName               string                      `json:"product_name"`
	Category                  string                      `json:"category"`
	TotalNegativeKeywordCount int                         `json:"total_negative_keyword_count"`
	NegativeReviewCount       int                         `json:"negative_review_count"`
	TotalReviewCount          int                         `json:"total_review_count"`
	AverageRating             float64                     `json:"average_rating"`
	NegativeRatio             float64                     `json:"negative_ratio"`
	TopNegativeKeywords       []taxonomy.Entry            `json:"top_negative_keywords"`
	ProblemCategories         map[string][]taxonomy.Entry `json:"problem_categories"`
}

// KeywordSource is the extraction surface the aggregator needs.
type KeywordSource interface {
	Sentiment(ctx context.Context, text string) ingest.SentimentKeywords
	Keywords(ctx context.Context, text string, tags ...string) []string
}

// Options tunes the aggregator.
type Options struct {
	Workers int // concurrent review extractions, default 1
}

// Aggregator computes negative keyword aggregates from the store.
type Aggregator struct {
	store   store.Store
	kw      KeywordSource
	tax     *taxonomy.Taxonomy
	workers int
	log     zerolog.Logger
}

// NewAggregator creates an aggregator. A nil taxonomy means taxonomy.Default().
func NewAggregator(st store.Store, kw KeywordSource, tax *taxonomy.Taxonomy, opts Options) *Aggregator {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Aggregator{
		store:   st,
		kw:      kw,
		tax:     tax,
		workers: opts.Workers,
		log:     logging.Component("negative"),
	}
}

// KeywordsForReview returns the distinct keywords a negative review
// contributes: its negative lexicon hits, or failing that, its first
// FallbackKeywords keywords.
func (a *Aggregator) KeywordsForReview(ctx context.Context, text string) []string {
	kws := a.kw.Sentiment(ctx, text).Negative
	if len(kws) == 0 {
		kws = a.kw.Keywords(ctx, text)
		if len(kws) > FallbackKeywords {
			kws = kws[:FallbackKeywords]
		}
	}
	return distinct(kws)
}

// Aggregate counts keywords across every review labeled Negative.
func (a *Aggregator) Aggregate(ctx context.Context) (Aggregate, error) {
	reviews, err := a.store.ReviewsBySentiment(ctx, store.Negative)
	if err != nil {
		return nil, fmt.Errorf("load negative reviews: %w", err)
	}
	a.log.Info().Int("reviews", len(reviews)).Msg("aggregating negative keywords")

	perReview := make([][]string, len(reviews))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, r := range reviews {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perReview[i] = a.KeywordsForReview(gctx, r.Text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := make(Aggregate)
	for i, r := range reviews {
		for _, kw := range perReview[i] {
			c := agg[r.ProductID]
			if c == nil {
				c = make(Counts)
				agg[r.ProductID] = c
			}
			c[kw]++
		}
	}
	metrics.NegativeReviewsAnalyzed.Add(float64(len(reviews)))
	a.log.Info().Int("reviews", len(reviews)).Int("products", len(agg)).Msg("negative keywords aggregated")
	return agg, nil
}

// ImprovementPriority ranks products by total negative keyword count,
// ascending product id on ties, and returns at most topN records.
// Products missing from the product table are left out.
func (a *Aggregator) ImprovementPriority(ctx context.Context, topN int) ([]PriorityRecord, error) {
	if topN <= 0 {
		return []PriorityRecord{}, nil
	}
	agg, err := a.Aggregate(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(agg))
	for id := range agg {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	records := make([]PriorityRecord, 0, len(ids))
	for _, id := range ids {
		counts := agg[id]
		if len(counts) == 0 {
			continue
		}
		p, ok, err := a.store.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			a.log.Warn().Int64("product_id", id).Msg("negative reviews reference unknown product, skipping")
			continue
		}
		stats, err := a.store.ProductStats(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, a.record(p, stats, counts))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].TotalNegativeKeywordCount != records[j].TotalNegativeKeywordCount {
			return records[i].TotalNegativeKeywordCount > records[j].TotalNegativeKeywordCount
		}
		return records[i].ProductID < records[j].ProductID
	})
	if len(records) > topN {
		records = records[:topN]
	}
	return records, nil
}

func (a *Aggregator) record(p store.Product, stats store.ProductStats, counts Counts) PriorityRecord {
	var ratio float64
	if stats.ReviewCount > 0 {
		ratio = float64(stats.NegativeCount) / float64(stats.ReviewCount) * 100
	}

	categories := a.tax.Categorize(counts)
	for name, entries := range categories {
		if len(entries) > TopPerCategoryCount {
			categories[name] = entries[:TopPerCategoryCount]
		}
	}

	return PriorityRecord{
		ProductID:                 p.ID,
		ProductName:               p.Name,
		Category:                  p.Category,
		TotalNegativeKeywordCount: Total(counts),
		NegativeReviewCount:       stats.NegativeCount,
		TotalReviewCount:          stats.ReviewCount,
		AverageRating:             round(stats.AverageRating, 2),
		NegativeRatio:             round(ratio, 1),
		TopNegativeKeywords:       TopKeywords(counts, TopKeywordCount),
		ProblemCategories:         categories,
	}
}

// Total sums the counts.
func Total(c Counts) int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// TopKeywords returns up to n keywords by count descending, keyword
// ascending on ties.
func TopKeywords(c Counts, n int) []taxonomy.Entry {
	entries := make([]taxonomy.Entry, 0, len(c))
	for k, v := range c {
		entries = append(entries, taxonomy.Entry{Keyword: k, Count: v})
	}
	taxonomy.SortEntries(entries)
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func distinct(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
