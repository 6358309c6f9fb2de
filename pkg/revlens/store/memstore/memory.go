package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/revlens/pkg/revlens/store"
)

// Store is an in-memory implementation of store.Store and store.Writer for tests.
type Store struct {
	mu        sync.RWMutex
	customers map[int64]store.Customer
	products  map[int64]store.Product
	reviews   map[string]store.Review
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		customers: make(map[int64]store.Customer),
		products:  make(map[int64]store.Product),
		reviews:   make(map[string]store.Review),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertCustomer inserts or replaces a customer.
func (s *Store) UpsertCustomer(ctx context.Context, c store.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
	return nil
}

// UpsertProduct inserts or replaces a product.
func (s *Store) UpsertProduct(ctx context.Context, p store.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

// UpsertReview inserts or replaces a review, keyed by review id.
func (s *Store) UpsertReview(ctx context.Context, r store.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.ID] = r
	return nil
}

// ListProductIDs returns product ids in ascending order.
func (s *Store) ListProductIDs(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// GetProduct implements store.Store.
func (s *Store) GetProduct(ctx context.Context, id int64) (store.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok, nil
}

// ProductStats implements store.Store.
func (s *Store) ProductStats(ctx context.Context, id int64) (store.ProductStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		stats store.ProductStats
		sum   int
	)
	for _, r := range s.reviews {
		if r.ProductID != id {
			continue
		}
		stats.ReviewCount++
		sum += r.Rating
		if r.Sentiment == store.Negative {
			stats.NegativeCount++
		}
	}
	if stats.ReviewCount > 0 {
		stats.AverageRating = float64(sum) / float64(stats.ReviewCount)
	}
	return stats, nil
}

// ReviewsByCustomer implements store.Store.
func (s *Store) ReviewsByCustomer(ctx context.Context, customerID int64) ([]store.Review, error) {
	return s.filter(func(r store.Review) bool { return r.CustomerID == customerID }), nil
}

// ReviewsByProduct implements store.Store.
func (s *Store) ReviewsByProduct(ctx context.Context, productID int64) ([]store.Review, error) {
	return s.filter(func(r store.Review) bool { return r.ProductID == productID }), nil
}

// ReviewsBySentiment implements store.Store.
func (s *Store) ReviewsBySentiment(ctx context.Context, sentiment store.Sentiment) ([]store.Review, error) {
	return s.filter(func(r store.Review) bool { return r.Sentiment == sentiment }), nil
}

// filter returns matching reviews ordered by review id, like the SQL store.
func (s *Store) filter(keep func(store.Review) bool) []store.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Review
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PurchasedProducts implements store.Store.
func (s *Store) PurchasedProducts(ctx context.Context, customerID int64) (map[int64]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]struct{})
	for _, r := range s.reviews {
		if r.CustomerID == customerID {
			out[r.ProductID] = struct{}{}
		}
	}
	return out, nil
}

// Overview implements store.Store.
func (s *Store) Overview(ctx context.Context) (store.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		o         store.Overview
		sum       int
		customers = make(map[int64]struct{})
		products  = make(map[int64]struct{})
	)
	for _, r := range s.reviews {
		o.TotalReviews++
		sum += r.Rating
		customers[r.CustomerID] = struct{}{}
		products[r.ProductID] = struct{}{}
		switch r.Sentiment {
		case store.Positive:
			o.PositiveCount++
		case store.Negative:
			o.NegativeCount++
		case store.Neutral:
			o.NeutralCount++
		}
	}
	o.TotalCustomers = len(customers)
	o.TotalProducts = len(products)
	if o.TotalReviews > 0 {
		o.AverageRating = float64(sum) / float64(o.TotalReviews)
	}
	return o, nil
}
