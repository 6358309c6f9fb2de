// Package profile builds keyword preference profiles from reviews and keeps
// the product profile snapshot used for recommendations.
package profile

import (
	"sort"

	"github.com/cognicore/revlens/pkg/revlens/store"
)

// Rating weights: a five-star review counts half again as much.
const (
	WeightTopRating = 1.5
	WeightDefault   = 1.0
	TopRating       = 5
	PositiveRating  = 4
)

// KeywordProfile maps keyword to weight. Non-empty profiles sum to 1.
type KeywordProfile map[string]float64

// KeywordWeight is one entry of a profile.
type KeywordWeight struct {
	Keyword string  `json:"keyword"`
	Weight  float64 `json:"weight"`
}

// Top returns up to n entries by weight descending, keyword ascending on ties.
func (p KeywordProfile) Top(n int) []KeywordWeight {
	if n <= 0 || len(p) == 0 {
		return nil
	}
	out := make([]KeywordWeight, 0, len(p))
	for k, w := range p {
		out = append(out, KeywordWeight{Keyword: k, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Keyword < out[j].Keyword
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Sum adds the weights in key order so the result is reproducible.
func (p KeywordProfile) Sum() float64 {
	var s float64
	for _, k := range p.Keys() {
		s += p[k]
	}
	return s
}

// Keys returns the keywords sorted ascending.
func (p KeywordProfile) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsPositive reports whether a review reflects a preference: four stars or
// more, or labeled Positive.
func IsPositive(r store.Review) bool {
	return r.Rating >= PositiveRating || r.Sentiment == store.Positive
}

// PositiveReviews keeps the reviews that reflect a preference, in order.
func PositiveReviews(reviews []store.Review) []store.Review {
	var out []store.Review
	for _, r := range reviews {
		if IsPositive(r) {
			out = append(out, r)
		}
	}
	return out
}

// Weight returns the contribution of one keyword occurrence in a review.
func Weight(r store.Review) float64 {
	if r.Rating == TopRating {
		return WeightTopRating
	}
	return WeightDefault
}
