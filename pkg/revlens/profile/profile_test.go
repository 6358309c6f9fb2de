package profile

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/store"
	"github.com/cognicore/revlens/pkg/revlens/store/memstore"
)

// fieldsSource treats every whitespace-separated word as a keyword.
type fieldsSource struct{}

func (fieldsSource) Keywords(ctx context.Context, text string, tags ...string) []string {
	return strings.Fields(text)
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBuildWeighting(t *testing.T) {
	b := NewBuilder(memstore.New(), fieldsSource{}, BuilderOptions{})
	p := b.Build(context.Background(), []store.Review{
		{Rating: 5, Text: "배송 빠름"},
		{Rating: 4, Text: "배송"},
	})

	// 배송: 1.5 + 1.0 = 2.5, 빠름: 1.5, total 4.0
	if !approx(p["배송"], 2.5/4) || !approx(p["빠름"], 1.5/4) {
		t.Errorf("profile = %v", p)
	}
	if !approx(p.Sum(), 1) {
		t.Errorf("Sum = %v, want 1", p.Sum())
	}
}

func TestBuildRepeatedKeywordAccumulates(t *testing.T) {
	b := NewBuilder(memstore.New(), fieldsSource{}, BuilderOptions{})
	p := b.Build(context.Background(), []store.Review{{Rating: 4, Text: "좋 좋 배송"}})
	if !approx(p["좋"], 2.0/3) || !approx(p["배송"], 1.0/3) {
		t.Errorf("profile = %v", p)
	}
}

func TestBuildEmpty(t *testing.T) {
	b := NewBuilder(memstore.New(), fieldsSource{}, BuilderOptions{})
	for _, reviews := range [][]store.Review{nil, {{Rating: 5, Text: "   "}}} {
		p := b.Build(context.Background(), reviews)
		if p == nil || len(p) != 0 {
			t.Errorf("Build(%v) = %v, want empty non-nil profile", reviews, p)
		}
	}
}

func TestPositiveReviews(t *testing.T) {
	reviews := []store.Review{
		{ID: "a", Rating: 5, Sentiment: store.Negative},
		{ID: "b", Rating: 4, Sentiment: store.Neutral},
		{ID: "c", Rating: 2, Sentiment: store.Positive},
		{ID: "d", Rating: 3, Sentiment: store.Neutral},
		{ID: "e", Rating: 1, Sentiment: store.Negative},
	}
	got := PositiveReviews(reviews)
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("PositiveReviews = %+v", got)
	}
}

func TestTop(t *testing.T) {
	p := KeywordProfile{"b": 0.25, "a": 0.25, "c": 0.5}
	top := p.Top(2)
	if len(top) != 2 || top[0].Keyword != "c" || top[1].Keyword != "a" {
		t.Errorf("Top(2) = %v", top)
	}
	if got := p.Top(10); len(got) != 3 {
		t.Errorf("Top(10) = %v", got)
	}
	if got := p.Top(0); got != nil {
		t.Errorf("Top(0) = %v", got)
	}
}

func seedStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	for id := int64(1); id <= 45; id++ {
		s.UpsertProduct(ctx, store.Product{ID: id, Name: "p"})
	}
	s.UpsertReview(ctx, store.Review{ID: "r1", CustomerID: 9, ProductID: 1, Rating: 5, Text: "배송 빠름"})
	s.UpsertReview(ctx, store.Review{ID: "r2", CustomerID: 9, ProductID: 2, Rating: 1, Text: "고장", Sentiment: store.Negative})
	s.UpsertReview(ctx, store.Review{ID: "r3", CustomerID: 8, ProductID: 2, Rating: 4, Text: "디자인"})
	return s
}

func TestForCustomerAndProduct(t *testing.T) {
	s := seedStore(t)
	b := NewBuilder(s, fieldsSource{}, BuilderOptions{})
	ctx := context.Background()

	cp, err := b.ForCustomer(ctx, 9)
	if err != nil {
		t.Fatalf("ForCustomer: %v", err)
	}
	if len(cp) != 2 || !approx(cp["배송"], 0.5) {
		t.Errorf("customer profile = %v (negative review must be ignored)", cp)
	}

	unknown, err := b.ForCustomer(ctx, 404)
	if err != nil || len(unknown) != 0 {
		t.Errorf("ForCustomer(unknown) = %v, %v", unknown, err)
	}

	pp, err := b.ForProduct(ctx, 2)
	if err != nil {
		t.Fatalf("ForProduct: %v", err)
	}
	if len(pp) != 1 || !approx(pp["디자인"], 1) {
		t.Errorf("product profile = %v", pp)
	}
}

func TestBuildAllIncludesEmptyProfiles(t *testing.T) {
	s := seedStore(t)
	for _, workers := range []int{1, 4} {
		b := NewBuilder(s, fieldsSource{}, BuilderOptions{Workers: workers, ProgressEvery: 20})
		all, err := b.BuildAll(context.Background())
		if err != nil {
			t.Fatalf("BuildAll(workers=%d): %v", workers, err)
		}
		if len(all) != 45 {
			t.Fatalf("BuildAll returned %d profiles, want 45", len(all))
		}
		if len(all[3]) != 0 {
			t.Errorf("product 3 profile = %v, want empty", all[3])
		}
		if !approx(all[1].Sum(), 1) {
			t.Errorf("product 1 sum = %v", all[1].Sum())
		}
	}
}

func TestBuildAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBuilder(seedStore(t), fieldsSource{}, BuilderOptions{Workers: 2})
	if _, err := b.BuildAll(ctx); err == nil {
		t.Error("expected error from canceled context")
	}
}

// downSource behaves like an extractor whose analyzer is unreachable.
type downSource struct{}

func (downSource) Keywords(ctx context.Context, text string, tags ...string) []string { return nil }

func (downSource) StrictKeywords(ctx context.Context, text string, tags ...string) ([]string, error) {
	return nil, internalerr.ErrAnalyzerUnavailable
}

func TestBuildAllFailsWhenAnalyzerDown(t *testing.T) {
	b := NewBuilder(seedStore(t), downSource{}, BuilderOptions{Workers: 2})
	all, err := b.BuildAll(context.Background())
	if !errors.Is(err, internalerr.ErrAnalyzerUnavailable) {
		t.Fatalf("BuildAll = %d profiles, %v; want ErrAnalyzerUnavailable", len(all), err)
	}

	// single profiles keep degrading to empty
	p, err := b.ForProduct(context.Background(), 1)
	if err != nil || len(p) != 0 {
		t.Errorf("ForProduct = %v, %v", p, err)
	}
}
