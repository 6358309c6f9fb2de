package rank

import (
	"math"
	"sort"

	"github.com/cognicore/revlens/pkg/revlens/profile"
)

// Cosine returns the cosine similarity of two keyword profiles over the
// union of their keywords, missing keywords counting as zero. It is 0 when
// either profile is empty or has zero norm. Keys are visited in sorted
// order so the result does not depend on map iteration.
func Cosine(a, b profile.KeywordProfile) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var dot, normA, normB float64
	for _, k := range keys {
		x, y := a[k], b[k]
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Scored is a candidate product with its similarity to the customer.
type Scored struct {
	ProductID int64
	Score     float64
}

// Rank scores every non-excluded product with a non-empty profile and
// returns them by score descending, product id ascending on ties. n <= 0
// means no limit.
func Rank(customer profile.KeywordProfile, products map[int64]profile.KeywordProfile, exclude map[int64]struct{}, n int) []Scored {
	if len(customer) == 0 {
		return nil
	}
	scored := make([]Scored, 0, len(products))
	for id, p := range products {
		if _, skip := exclude[id]; skip {
			continue
		}
		if len(p) == 0 {
			continue
		}
		scored = append(scored, Scored{ProductID: id, Score: Cosine(customer, p)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ProductID < scored[j].ProductID
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
