package profile

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/internal/metrics"
	"github.com/cognicore/revlens/pkg/revlens/store"
)

// KeywordSource extracts keywords from review text.
type KeywordSource interface {
	Keywords(ctx context.Context, text string, tags ...string) []string
}

// StrictKeywordSource reports analyzer failures instead of hiding them.
// BuildAll uses it when the source provides it, so an analyzer outage
// aborts the build rather than producing empty profiles.
type StrictKeywordSource interface {
	StrictKeywords(ctx context.Context, text string, tags ...string) ([]string, error)
}

// BuilderOptions tunes BuildAll.
type BuilderOptions struct {
	Workers       int // concurrent product builds, default 1
	ProgressEvery int // log progress every N products, default 20
}

// Builder turns reviews into keyword profiles.
type Builder struct {
	store store.Store
	kw    KeywordSource
	opts  BuilderOptions
	log   zerolog.Logger
}

// NewBuilder creates a profile builder.
func NewBuilder(st store.Store, kw KeywordSource, opts BuilderOptions) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 20
	}
	return &Builder{
		store: st,
		kw:    kw,
		opts:  opts,
		log:   logging.Component("profile"),
	}
}

// Build weights every keyword occurrence by its review's rating and
// L1-normalizes the result. Reviews are used as given; callers filter.
// No keywords yields an empty, non-nil profile.
func (b *Builder) Build(ctx context.Context, reviews []store.Review) KeywordProfile {
	p, _ := b.build(ctx, reviews, func(ctx context.Context, text string) ([]string, error) {
		return b.kw.Keywords(ctx, text), nil
	})
	return p
}

func (b *Builder) build(ctx context.Context, reviews []store.Review, keywords func(context.Context, string) ([]string, error)) (KeywordProfile, error) {
	raw := make(map[string]float64)
	for _, r := range reviews {
		kws, err := keywords(ctx, r.Text)
		if err != nil {
			return nil, fmt.Errorf("review %s: %w", r.ID, err)
		}
		w := Weight(r)
		for _, kw := range kws {
			raw[kw] += w
		}
	}
	return normalize(raw), nil
}

func normalize(raw map[string]float64) KeywordProfile {
	total := KeywordProfile(raw).Sum()
	if total <= 0 {
		return KeywordProfile{}
	}
	out := make(KeywordProfile, len(raw))
	for k, w := range raw {
		out[k] = w / total
	}
	return out
}

// ForCustomer builds a customer's profile from their positive reviews.
// Unknown customers get an empty profile.
func (b *Builder) ForCustomer(ctx context.Context, customerID int64) (KeywordProfile, error) {
	reviews, err := b.store.ReviewsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load reviews for customer %d: %w", customerID, err)
	}
	return b.Build(ctx, PositiveReviews(reviews)), nil
}

// ForProduct builds a product's profile from its positive reviews.
func (b *Builder) ForProduct(ctx context.Context, productID int64) (KeywordProfile, error) {
	reviews, err := b.store.ReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load reviews for product %d: %w", productID, err)
	}
	return b.Build(ctx, PositiveReviews(reviews)), nil
}

// strictForProduct is ForProduct failing on analyzer errors when the
// keyword source can report them.
func (b *Builder) strictForProduct(ctx context.Context, productID int64) (KeywordProfile, error) {
	strict, ok := b.kw.(StrictKeywordSource)
	if !ok {
		return b.ForProduct(ctx, productID)
	}
	reviews, err := b.store.ReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load reviews for product %d: %w", productID, err)
	}
	p, err := b.build(ctx, PositiveReviews(reviews), func(ctx context.Context, text string) ([]string, error) {
		return strict.StrictKeywords(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("profile product %d: %w", productID, err)
	}
	return p, nil
}

// BuildAll builds a profile for every known product, empty ones included.
// Analyzer failures abort the build when the keyword source reports them.
func (b *Builder) BuildAll(ctx context.Context) (map[int64]KeywordProfile, error) {
	start := time.Now()

	ids, err := b.store.ListProductIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	b.log.Info().Int("products", len(ids)).Int("workers", b.opts.Workers).Msg("building product profiles")

	results := make([]KeywordProfile, len(ids))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, id := range ids {
		g.Go(func() error {
			p, err := b.strictForProduct(gctx, id)
			if err != nil {
				return err
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p
			if n := done.Add(1); n%int64(b.opts.ProgressEvery) == 0 {
				b.log.Info().Int64("done", n).Int("total", len(ids)).Msg("product profiles progress")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profiles := make(map[int64]KeywordProfile, len(ids))
	for i, id := range ids {
		profiles[id] = results[i]
	}

	elapsed := time.Since(start)
	metrics.ProfileBuildDuration.Observe(elapsed.Seconds())
	metrics.ProfilesBuilt.Add(float64(len(profiles)))
	b.log.Info().Int("products", len(profiles)).Dur("elapsed", elapsed).Msg("product profiles built")

	return profiles, nil
}
