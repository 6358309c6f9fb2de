package revlens

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cognicore/revlens/pkg/revlens/cachestore"
	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/morph"
	"github.com/cognicore/revlens/pkg/revlens/profile"
	"github.com/cognicore/revlens/pkg/revlens/store"
	"github.com/cognicore/revlens/pkg/revlens/store/memstore"
)

func seedStore(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	for _, p := range []store.Product{
		{ID: 1, Name: "무선 이어폰", Category: "전자기기", Price: 59000},
		{ID: 2, Name: "헤드폰", Category: "전자기기", Price: 129000},
		{ID: 3, Name: "텀블러", Category: "생활용품", Price: 15000},
		{ID: 4, Name: "보조배터리", Category: "전자기기", Price: 32000},
	} {
		if err := s.UpsertProduct(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	for _, r := range []store.Review{
		{ID: "r01", CustomerID: 100, ProductID: 1, Rating: 5, Text: "음질 디자인", Sentiment: store.Positive},
		{ID: "r02", CustomerID: 200, ProductID: 1, Rating: 4, Text: "음질", Sentiment: store.Positive},
		{ID: "r03", CustomerID: 200, ProductID: 2, Rating: 5, Text: "음질 배터리", Sentiment: store.Positive},
		{ID: "r04", CustomerID: 201, ProductID: 3, Rating: 4, Text: "디자인 가격", Sentiment: store.Positive},
		{ID: "r05", CustomerID: 202, ProductID: 4, Rating: 4, Text: "배터리 충전", Sentiment: store.Positive},
		{ID: "r06", CustomerID: 300, ProductID: 2, Rating: 2, Text: "고장 소음", Sentiment: store.Negative},
		{ID: "r07", CustomerID: 301, ProductID: 3, Rating: 1, Text: "배송 지연", Sentiment: store.Negative},
		{ID: "r08", CustomerID: 301, ProductID: 4, Rating: 3, Text: "보통", Sentiment: store.Neutral},
	} {
		if err := s.UpsertReview(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestEngineRecommend(t *testing.T) {
	e := New(Options{Store: seedStore(t), Workers: 2})
	recs, err := e.Recommend(context.Background(), 100, 3, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	want := []struct {
		id    int64
		score float64
	}{{2, 0.5}, {3, 0.5}, {4, 0}}
	if len(recs) != len(want) {
		t.Fatalf("Recommend = %+v", recs)
	}
	for i, w := range want {
		if recs[i].ProductID != w.id || recs[i].SimilarityScore != w.score {
			t.Errorf("rec[%d] = %d (%.4f), want %d (%.4f)", i, recs[i].ProductID, recs[i].SimilarityScore, w.id, w.score)
		}
	}
	if recs[0].AverageRating != 3.5 || recs[0].ReviewCount != 2 {
		t.Errorf("product 2 stats = %+v", recs[0])
	}
}

func TestEngineCustomerWithoutPositiveReviews(t *testing.T) {
	e := New(Options{Store: seedStore(t)})
	ctx := context.Background()

	recs, err := e.Recommend(ctx, 300, 5, true)
	if err != nil || len(recs) != 0 {
		t.Errorf("Recommend(300) = %+v, %v; want empty", recs, err)
	}
	p, err := e.BuildCustomerProfile(ctx, 300)
	if err != nil || len(p) != 0 {
		t.Errorf("BuildCustomerProfile(300) = %v, %v", p, err)
	}
	if p, _ := e.BuildCustomerProfile(ctx, 9999); len(p) != 0 {
		t.Errorf("unknown customer profile = %v", p)
	}
}

func TestEngineProfiles(t *testing.T) {
	e := New(Options{Store: seedStore(t)})
	ctx := context.Background()

	cp, err := e.BuildCustomerProfile(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	// rating 5 reviews weigh 1.5 before normalization
	if math.Abs(cp["음질"]-0.5) > 1e-9 || math.Abs(cp.Sum()-1) > 1e-9 {
		t.Errorf("customer profile = %v", cp)
	}

	pp, ok, err := e.ProductProfile(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("ProductProfile(1) = %v, %v, %v", pp, ok, err)
	}
	// 음질 appears in both positive reviews: 1.5 + 1 of a total 4
	if math.Abs(pp["음질"]-2.5/4) > 1e-9 {
		t.Errorf("product profile = %v", pp)
	}

	if _, ok, err := e.ProductProfile(ctx, 999); ok || err != nil {
		t.Errorf("ProductProfile(999) = %v, %v", ok, err)
	}
}

func TestEngineImprovementPriority(t *testing.T) {
	e := New(Options{Store: seedStore(t)})
	recs, err := e.ImprovementPriority(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	// both products have two negative keywords; the lower id ranks first
	if len(recs) != 2 || recs[0].ProductID != 2 || recs[1].ProductID != 3 {
		t.Fatalf("ImprovementPriority = %+v", recs)
	}
	if recs[0].ProblemCategories["품질"][0].Keyword != "고장" {
		t.Errorf("product 2 categories = %v", recs[0].ProblemCategories)
	}
	if recs[1].ProblemCategories["배송"] == nil {
		t.Errorf("fallback keywords not categorized: %v", recs[1].ProblemCategories)
	}

	agg, err := e.NegativeKeywords(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if agg[3]["배송"] != 1 || agg[3]["지연"] != 1 {
		t.Errorf("aggregate for product 3 = %v", agg[3])
	}
}

func TestEngineOverview(t *testing.T) {
	e := New(Options{Store: seedStore(t)})
	o, err := e.Overview(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if o.TotalReviews != 8 || o.TotalProducts != 4 || o.PositiveCount != 5 || o.NegativeCount != 2 || o.NeutralCount != 1 {
		t.Errorf("Overview = %+v", o)
	}
}

func TestEngineProfilePersistence(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	blobs := &cachestore.MemoryStore{}

	first := New(Options{Store: s, Cache: blobs})
	if first.Profiles() != nil {
		t.Fatal("profiles present before load")
	}
	snap, err := first.LoadProfiles(ctx)
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if len(snap.Profiles) != 4 {
		t.Errorf("profiles = %d, want 4", len(snap.Profiles))
	}
	if _, err := blobs.Get(ctx); err != nil {
		t.Fatalf("rebuilt profiles not persisted: %v", err)
	}

	second := New(Options{Store: s, Cache: blobs})
	loaded, err := second.LoadProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ID != snap.ID {
		t.Errorf("second engine rebuilt (%s) instead of loading %s", loaded.ID, snap.ID)
	}

	rebuilt, err := second.RebuildProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.ID == snap.ID {
		t.Error("RebuildProfiles kept the old snapshot id")
	}
	if second.Profiles().ID != rebuilt.ID {
		t.Error("rebuilt snapshot not installed")
	}
}

func TestAnalyzerOutageIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	blobs := &cachestore.MemoryStore{}

	down := morph.AnalyzerFunc(func(ctx context.Context, text string) ([]morph.Token, error) {
		return nil, errors.New("connection refused")
	})
	broken := New(Options{Store: s, Analyzer: down, Cache: blobs})
	if _, err := broken.LoadProfiles(ctx); !errors.Is(err, internalerr.ErrAnalyzerUnavailable) {
		t.Fatalf("LoadProfiles = %v, want ErrAnalyzerUnavailable", err)
	}
	if _, err := blobs.Get(ctx); !errors.Is(err, cachestore.ErrNotFound) {
		t.Fatalf("empty profiles persisted during outage: %v", err)
	}

	recovered := New(Options{Store: s, Cache: blobs})
	recs, err := recovered.Recommend(ctx, 100, 3, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) == 0 {
		t.Error("no recommendations after analyzer recovered")
	}
}

func TestRebuildProfilesIgnoresSkewedSnapshot(t *testing.T) {
	ctx := context.Background()
	blobs := &cachestore.MemoryStore{}
	blob, err := profile.Encode(&profile.Snapshot{
		ID:       "skewed",
		BuiltAt:  time.Now().Add(time.Hour),
		Profiles: map[int64]profile.KeywordProfile{1: {"음질": 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	blobs.Put(ctx, blob)

	e := New(Options{Store: seedStore(t), Cache: blobs})
	if snap, err := e.LoadProfiles(ctx); err != nil || snap.ID != "skewed" {
		t.Fatalf("LoadProfiles = %+v, %v", snap, err)
	}
	snap, err := e.RebuildProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.ID == "skewed" || len(snap.Profiles) != 4 {
		t.Errorf("RebuildProfiles = %s with %d profiles, want fresh 4", snap.ID, len(snap.Profiles))
	}
}
