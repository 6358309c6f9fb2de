package rank

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/internal/metrics"
	"github.com/cognicore/revlens/pkg/revlens/profile"
	"github.com/cognicore/revlens/pkg/revlens/store"
)

// TopKeywordCount is how many profile keywords accompany a recommendation.
const TopKeywordCount = 5

// Recommendation is one ranked product with display metadata.
type Recommendation struct {
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Category        string          `json:"category"`
	SimilarityScore float64         `json:"similarity_score"`
	AverageRating   float64         `json:"average_rating"`
	ReviewCount     int             `json:"review_count"`
	TopKeywords     []KeywordWeight `json:"top_keywords"`
}

// KeywordWeight is a product keyword rounded for display.
type KeywordWeight struct {
	Keyword string  `json:"keyword"`
	Weight  float64 `json:"weight"`
}

// CustomerProfiler builds a customer's profile on demand.
type CustomerProfiler interface {
	ForCustomer(ctx context.Context, customerID int64) (profile.KeywordProfile, error)
}

// SnapshotSource supplies product profiles, building them if needed.
type SnapshotSource interface {
	Ensure(ctx context.Context) (*profile.Snapshot, error)
}

// Ranker produces recommendations for customers.
type Ranker struct {
	store    store.Store
	builder  CustomerProfiler
	products SnapshotSource
	log      zerolog.Logger
}

// NewRanker creates a ranker.
func NewRanker(st store.Store, builder CustomerProfiler, products SnapshotSource) *Ranker {
	return &Ranker{
		store:    st,
		builder:  builder,
		products: products,
		log:      logging.Component("rank"),
	}
}

// Recommend returns up to topN products most similar to the customer's
// positive-review profile. A customer without positive reviews gets an
// empty list. Products missing from the product table are passed over.
func (r *Ranker) Recommend(ctx context.Context, customerID int64, topN int, excludePurchased bool) ([]Recommendation, error) {
	if topN <= 0 {
		return []Recommendation{}, nil
	}

	cp, err := r.builder.ForCustomer(ctx, customerID)
	if err != nil {
		metrics.Recommendations.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(cp) == 0 {
		metrics.Recommendations.WithLabelValues("empty_profile").Inc()
		r.log.Debug().Int64("customer_id", customerID).Msg("no positive reviews, nothing to recommend")
		return []Recommendation{}, nil
	}

	var exclude map[int64]struct{}
	if excludePurchased {
		exclude, err = r.store.PurchasedProducts(ctx, customerID)
		if err != nil {
			metrics.Recommendations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("load purchases of customer %d: %w", customerID, err)
		}
	}

	snap, err := r.products.Ensure(ctx)
	if err != nil {
		metrics.Recommendations.WithLabelValues("error").Inc()
		return nil, err
	}

	ranked := Rank(cp, snap.Profiles, exclude, 0)
	out := make([]Recommendation, 0, topN)
	// Products missing from the catalog are passed over and the next ranked
	// candidate fills the slot, so up to topN rows come back.
	for _, s := range ranked {
		if len(out) == topN {
			break
		}
		p, ok, err := r.store.GetProduct(ctx, s.ProductID)
		if err != nil {
			metrics.Recommendations.WithLabelValues("error").Inc()
			return nil, err
		}
		if !ok {
			r.log.Warn().Int64("product_id", s.ProductID).Msg("profiled product missing from catalog, skipping")
			continue
		}
		stats, err := r.store.ProductStats(ctx, s.ProductID)
		if err != nil {
			metrics.Recommendations.WithLabelValues("error").Inc()
			return nil, err
		}
		out = append(out, Recommendation{
			ProductID:       p.ID,
			ProductName:     p.Name,
			Category:        p.Category,
			SimilarityScore: Round(s.Score, 4),
			AverageRating:   Round(stats.AverageRating, 2),
			ReviewCount:     stats.ReviewCount,
			TopKeywords:     topKeywords(snap.Profiles[s.ProductID], TopKeywordCount),
		})
	}

	metrics.Recommendations.WithLabelValues("ok").Inc()
	r.log.Debug().Int64("customer_id", customerID).Int("customer_keywords", len(cp)).
		Int("candidates", len(ranked)).Int("returned", len(out)).Msg("recommendations computed")
	return out, nil
}

func topKeywords(p profile.KeywordProfile, n int) []KeywordWeight {
	top := p.Top(n)
	out := make([]KeywordWeight, len(top))
	for i, kw := range top {
		out[i] = KeywordWeight{Keyword: kw.Keyword, Weight: Round(kw.Weight, 4)}
	}
	return out
}

// Round rounds half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}
