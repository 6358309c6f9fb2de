// Package revlens ties review keyword extraction, profile building,
// similarity ranking and negative review analysis into one engine.
package revlens

import (
	"context"

	"github.com/cognicore/revlens/pkg/revlens/cachestore"
	"github.com/cognicore/revlens/pkg/revlens/ingest"
	"github.com/cognicore/revlens/pkg/revlens/lexicon"
	"github.com/cognicore/revlens/pkg/revlens/morph"
	"github.com/cognicore/revlens/pkg/revlens/morph/dict"
	"github.com/cognicore/revlens/pkg/revlens/negative"
	"github.com/cognicore/revlens/pkg/revlens/profile"
	"github.com/cognicore/revlens/pkg/revlens/rank"
	"github.com/cognicore/revlens/pkg/revlens/store"
	"github.com/cognicore/revlens/pkg/revlens/taxonomy"
)

// Engine is the review analytics facade
type Engine struct {
	store     store.Store
	extractor *ingest.Extractor
	taxonomy  *taxonomy.Taxonomy
	builder   *profile.Builder
	cache     *profile.Cache
	ranker    *rank.Ranker
	negative  *negative.Aggregator
}

// Options configures an Engine. Only Store is required.
type Options struct {
	Store    store.Store
	Analyzer morph.Analyzer       // default dict.Default()
	Lexicon  *lexicon.Lexicon     // default lexicon.Default()
	Taxonomy *taxonomy.Taxonomy   // default taxonomy.Default()
	Cache    cachestore.BlobStore // nil keeps product profiles in memory only

	Workers       int // concurrent profile builds and review extractions
	ProgressEvery int // log build progress every N products
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	if opts.Analyzer == nil {
		opts.Analyzer = dict.Default()
	}
	if opts.Lexicon == nil {
		opts.Lexicon = lexicon.Default()
	}
	if opts.Taxonomy == nil {
		opts.Taxonomy = taxonomy.Default()
	}

	ext := ingest.NewExtractor(opts.Analyzer, opts.Lexicon)
	builder := profile.NewBuilder(opts.Store, ext, profile.BuilderOptions{
		Workers:       opts.Workers,
		ProgressEvery: opts.ProgressEvery,
	})
	cache := profile.NewCache(builder, opts.Cache)

	return &Engine{
		store:     opts.Store,
		extractor: ext,
		taxonomy:  opts.Taxonomy,
		builder:   builder,
		cache:     cache,
		ranker:    rank.NewRanker(opts.Store, builder, cache),
		negative:  negative.NewAggregator(opts.Store, ext, opts.Taxonomy, negative.Options{Workers: opts.Workers}),
	}
}

// Close cleanly shuts down the engine and its store
func (e *Engine) Close() error {
	return e.store.Close()
}

// Extractor exposes the keyword extractor.
func (e *Engine) Extractor() *ingest.Extractor { return e.extractor }

// Taxonomy exposes the problem category taxonomy.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy { return e.taxonomy }

// Recommend returns up to topN products for a customer, most similar first.
func (e *Engine) Recommend(ctx context.Context, customerID int64, topN int, excludePurchased bool) ([]rank.Recommendation, error) {
	return e.ranker.Recommend(ctx, customerID, topN, excludePurchased)
}

// BuildCustomerProfile builds a customer's profile from their positive
// reviews. Unknown customers get an empty profile.
func (e *Engine) BuildCustomerProfile(ctx context.Context, customerID int64) (profile.KeywordProfile, error) {
	return e.builder.ForCustomer(ctx, customerID)
}

// ProductProfile returns a product's cached profile. The bool is false when
// the product has no profile in the current snapshot.
func (e *Engine) ProductProfile(ctx context.Context, productID int64) (profile.KeywordProfile, bool, error) {
	snap, err := e.cache.Ensure(ctx)
	if err != nil {
		return nil, false, err
	}
	p, ok := snap.Profiles[productID]
	return p, ok, nil
}

// Product returns catalog metadata for a product.
func (e *Engine) Product(ctx context.Context, productID int64) (store.Product, bool, error) {
	return e.store.GetProduct(ctx, productID)
}

// ImprovementPriority ranks products by negative keyword volume.
func (e *Engine) ImprovementPriority(ctx context.Context, topN int) ([]negative.PriorityRecord, error) {
	return e.negative.ImprovementPriority(ctx, topN)
}

// NegativeKeywords returns per-product negative keyword counts.
func (e *Engine) NegativeKeywords(ctx context.Context) (negative.Aggregate, error) {
	return e.negative.Aggregate(ctx)
}

// Overview returns dataset-wide review statistics.
func (e *Engine) Overview(ctx context.Context) (store.Overview, error) {
	return e.store.Overview(ctx)
}

// LoadProfiles loads persisted product profiles, building and persisting
// them when none are usable.
func (e *Engine) LoadProfiles(ctx context.Context) (*profile.Snapshot, error) {
	return e.cache.Load(ctx)
}

// RebuildProfiles rebuilds every product profile from the store and
// persists the result.
func (e *Engine) RebuildProfiles(ctx context.Context) (*profile.Snapshot, error) {
	snap, err := e.cache.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Save(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// Profiles returns the current snapshot, or nil before profiles are loaded.
func (e *Engine) Profiles() *profile.Snapshot {
	return e.cache.Snapshot()
}
