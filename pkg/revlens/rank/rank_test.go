package rank

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/cognicore/revlens/pkg/revlens/profile"
	"github.com/cognicore/revlens/pkg/revlens/store"
	"github.com/cognicore/revlens/pkg/revlens/store/memstore"
)

func TestCosineKnownValue(t *testing.T) {
	customer := profile.KeywordProfile{"편리": 0.6, "디자인": 0.4}
	product := profile.KeywordProfile{"편리": 0.5, "품질": 0.5}
	got := Cosine(customer, product)
	if math.Abs(got-0.5883) > 1e-3 {
		t.Errorf("Cosine = %v, want ≈0.5883", got)
	}
}

func TestCosineProperties(t *testing.T) {
	profiles := []profile.KeywordProfile{
		{"a": 0.5, "b": 0.5},
		{"a": 0.1, "c": 0.9},
		{"b": 0.3, "c": 0.3, "d": 0.4},
		{"x": 1},
	}
	for i, p := range profiles {
		if got := Cosine(p, p); math.Abs(got-1) > 1e-9 {
			t.Errorf("Cosine(p%d, p%d) = %v, want 1", i, i, got)
		}
		for j, q := range profiles {
			if Cosine(p, q) != Cosine(q, p) {
				t.Errorf("Cosine not symmetric for p%d, p%d", i, j)
			}
		}
	}
	if got := Cosine(profiles[0], profiles[3]); got != 0 {
		t.Errorf("disjoint profiles = %v, want 0", got)
	}
}

func TestCosineEmpty(t *testing.T) {
	p := profile.KeywordProfile{"a": 1}
	for _, tc := range [][2]profile.KeywordProfile{
		{nil, p}, {p, nil}, {{}, {}}, {{"a": 0}, p},
	} {
		if got := Cosine(tc[0], tc[1]); got != 0 {
			t.Errorf("Cosine(%v, %v) = %v, want 0", tc[0], tc[1], got)
		}
	}
}

func TestRankOrderingAndLimit(t *testing.T) {
	customer := profile.KeywordProfile{"a": 1}
	products := map[int64]profile.KeywordProfile{
		5: {"a": 0.5, "b": 0.5},
		3: {"a": 0.5, "c": 0.5}, // ties with 5
		9: {"a": 1},
		7: {"z": 1},
		8: {},
	}
	got := Rank(customer, products, nil, 3)
	want := []int64{9, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("Rank = %v", got)
	}
	for i, id := range want {
		if got[i].ProductID != id {
			t.Errorf("Rank[%d] = %d, want %d (all %v)", i, got[i].ProductID, id, got)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores increase at %d: %v", i, got)
		}
	}

	all := Rank(customer, products, nil, 0)
	if len(all) != 4 {
		t.Errorf("unlimited Rank returned %d, want 4 (empty profile skipped)", len(all))
	}
}

func TestRankExclusion(t *testing.T) {
	customer := profile.KeywordProfile{"a": 1}
	products := map[int64]profile.KeywordProfile{1: {"a": 1}, 2: {"a": 1}}
	got := Rank(customer, products, map[int64]struct{}{1: {}}, 10)
	if len(got) != 1 || got[0].ProductID != 2 {
		t.Errorf("Rank with exclusion = %v", got)
	}
	if got := Rank(nil, products, nil, 10); got != nil {
		t.Errorf("Rank(empty customer) = %v", got)
	}
}

func TestRound(t *testing.T) {
	if Round(0.58834, 4) != 0.5883 || Round(3.456, 2) != 3.46 || Round(0, 2) != 0 {
		t.Error("Round mismatch")
	}
}

type fieldsSource struct{}

func (fieldsSource) Keywords(ctx context.Context, text string, tags ...string) []string {
	return strings.Fields(text)
}

func newRanker(t *testing.T) (*Ranker, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	for _, p := range []store.Product{
		{ID: 1, Name: "이어폰", Category: "전자기기"},
		{ID: 2, Name: "헤드폰", Category: "전자기기"},
		{ID: 3, Name: "텀블러", Category: "생활용품"},
		{ID: 4, Name: "빈상품", Category: "생활용품"},
	} {
		s.UpsertProduct(ctx, p)
	}
	for _, r := range []store.Review{
		{ID: "c1", CustomerID: 100, ProductID: 1, Rating: 5, Text: "음질 편리"},
		{ID: "o1", CustomerID: 200, ProductID: 1, Rating: 4, Text: "음질 편리 가벼움"},
		{ID: "o2", CustomerID: 200, ProductID: 2, Rating: 5, Text: "음질 디자인"},
		{ID: "o3", CustomerID: 201, ProductID: 2, Rating: 2, Text: "고장", Sentiment: store.Negative},
		{ID: "o4", CustomerID: 200, ProductID: 3, Rating: 4, Text: "보온"},
		{ID: "n1", CustomerID: 300, ProductID: 3, Rating: 2, Text: "별로", Sentiment: store.Negative},
	} {
		s.UpsertReview(ctx, r)
	}
	b := profile.NewBuilder(s, fieldsSource{}, profile.BuilderOptions{})
	return NewRanker(s, b, profile.NewCache(b, nil)), s
}

func TestRecommend(t *testing.T) {
	r, _ := newRanker(t)
	recs, err := r.Recommend(context.Background(), 100, 5, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// product 1 is purchased; 3 shares nothing; 4 has no profile
	if len(recs) != 2 {
		t.Fatalf("Recommend = %+v", recs)
	}
	if recs[0].ProductID != 2 {
		t.Errorf("first recommendation = %d, want 2", recs[0].ProductID)
	}
	if recs[0].ProductName != "헤드폰" || recs[0].ReviewCount != 2 || recs[0].AverageRating != 3.5 {
		t.Errorf("metadata = %+v", recs[0])
	}
	if len(recs[0].TopKeywords) != 2 || recs[0].TopKeywords[0].Weight != 0.5 {
		t.Errorf("top keywords = %+v", recs[0].TopKeywords)
	}
	if recs[1].ProductID != 3 || recs[1].SimilarityScore != 0 {
		t.Errorf("second recommendation = %+v", recs[1])
	}

	withPurchased, _ := r.Recommend(context.Background(), 100, 1, false)
	if len(withPurchased) != 1 || withPurchased[0].ProductID != 1 {
		t.Errorf("Recommend(include purchased) = %+v", withPurchased)
	}
}

func TestRecommendNoPositiveReviews(t *testing.T) {
	r, _ := newRanker(t)
	recs, err := r.Recommend(context.Background(), 300, 5, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Recommend = %+v, want empty", recs)
	}
	if recs, _ := r.Recommend(context.Background(), 100, 0, true); len(recs) != 0 {
		t.Errorf("Recommend(topN=0) = %+v", recs)
	}
}

func TestRecommendSkipsProductsMissingFromCatalog(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	s.UpsertProduct(ctx, store.Product{ID: 2, Name: "kept"})
	s.UpsertReview(ctx, store.Review{ID: "c", CustomerID: 1, ProductID: 9, Rating: 5, Text: "a"})
	b := profile.NewBuilder(s, fieldsSource{}, profile.BuilderOptions{})

	products := staticSnapshot{1: {"a": 1}, 2: {"a": 0.5, "b": 0.5}}
	recs, err := NewRanker(s, b, products).Recommend(ctx, 1, 1, false)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 1 || recs[0].ProductID != 2 {
		t.Errorf("Recommend = %+v, want product 2 backfilled", recs)
	}
}

type staticSnapshot map[int64]profile.KeywordProfile

func (s staticSnapshot) Ensure(ctx context.Context) (*profile.Snapshot, error) {
	return &profile.Snapshot{ID: "static", Profiles: s}, nil
}
