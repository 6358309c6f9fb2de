package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is the read-only view of review data used by the analysis core
type Store interface {
	Close() error

	// Products
	ListProductIDs(ctx context.Context) ([]int64, error)
	GetProduct(ctx context.Context, id int64) (Product, bool, error)
	ProductStats(ctx context.Context, id int64) (ProductStats, error)

	// Reviews
	ReviewsByCustomer(ctx context.Context, customerID int64) ([]Review, error)
	ReviewsByProduct(ctx context.Context, productID int64) ([]Review, error)
	ReviewsBySentiment(ctx context.Context, s Sentiment) ([]Review, error)
	PurchasedProducts(ctx context.Context, customerID int64) (map[int64]struct{}, error)

	// Aggregates
	Overview(ctx context.Context) (Overview, error)
}

// Writer loads source rows. The analysis core never uses it; bulk loaders do.
type Writer interface {
	UpsertCustomer(ctx context.Context, c Customer) error
	UpsertProduct(ctx context.Context, p Product) error
	UpsertReview(ctx context.Context, r Review) error
}

// Sentiment is the label attached to a review at collection time
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Negative Sentiment = "Negative"
	Neutral  Sentiment = "Neutral"
)

// ParseSentiment accepts the three labels case-insensitively.
func ParseSentiment(s string) (Sentiment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return Positive, nil
	case "negative":
		return Negative, nil
	case "neutral":
		return Neutral, nil
	}
	return "", fmt.Errorf("unknown sentiment %q", s)
}

// Customer is a reviewer
type Customer struct {
	ID       int64
	Name     string
	AgeGroup string
	Gender   string
	JoinDate time.Time
}

// Product is a reviewable item
type Product struct {
	ID       int64
	Name     string
	Category string
	Price    int64
}

// Review is an immutable review fact
type Review struct {
	ID         string
	CustomerID int64
	ProductID  int64
	Rating     int // 1..5
	Text       string
	Sentiment  Sentiment
	Date       time.Time
}

// ProductStats summarizes all reviews of one product
type ProductStats struct {
	ReviewCount   int
	NegativeCount int
	AverageRating float64 // 0 when ReviewCount == 0
}

// Overview summarizes the whole review table
type Overview struct {
	TotalCustomers int
	TotalProducts  int
	TotalReviews   int
	AverageRating  float64
	PositiveCount  int
	NegativeCount  int
	NeutralCount   int
}
