package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/store"
)

// Supported database/sql driver names.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

const dateLayout = "2006-01-02"

// Options tunes the connection pool. Zero values fall back to defaults.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store implements store.Store and store.Writer on database/sql
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the review database and creates the schema if missing.
// SQLite databases are opened in WAL mode.
func Open(ctx context.Context, driver, dsn string, opts Options) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, unavailable("open database", err)
	}

	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 50
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 10
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("ping database", err)
	}

	for _, pragma := range d.pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, unavailable("configure database", err)
		}
	}

	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, unavailable("init schema", err)
		}
	}

	return &Store{db: db, dialect: d}, nil
}

// New wraps an existing handle without touching the schema.
func New(db *sql.DB, driver string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: d}, nil
}

// DB exposes the handle so other tables (profile cache) can share the connection.
func (s *Store) DB() *sql.DB { return s.db }

// Driver returns the database/sql driver name.
func (s *Store) Driver() string { return s.dialect.name }

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// ListProductIDs returns every product id in ascending order
func (s *Store) ListProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT product_id FROM products ORDER BY product_id`)
	if err != nil {
		return nil, unavailable("list products", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan product id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list products", err)
	}
	return ids, nil
}

// GetProduct retrieves a product by id
func (s *Store) GetProduct(ctx context.Context, id int64) (store.Product, bool, error) {
	var p store.Product
	err := s.db.QueryRowContext(ctx, `
SELECT product_id, product_name, category, price
FROM products
WHERE product_id = ?`, id).Scan(&p.ID, &p.Name, &p.Category, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Product{}, false, nil
	}
	if err != nil {
		return store.Product{}, false, unavailable(fmt.Sprintf("get product %d", id), err)
	}
	return p, true, nil
}

// ProductStats returns review count, negative count and mean rating for a product
func (s *Store) ProductStats(ctx context.Context, id int64) (store.ProductStats, error) {
	var (
		avg      sql.NullFloat64
		count    int
		negative sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT AVG(rating), COUNT(*),
       SUM(CASE WHEN sentiment = 'Negative' THEN 1 ELSE 0 END)
FROM reviews
WHERE product_id = ?`, id).Scan(&avg, &count, &negative)
	if err != nil {
		return store.ProductStats{}, unavailable(fmt.Sprintf("stats for product %d", id), err)
	}
	return store.ProductStats{
		ReviewCount:   count,
		NegativeCount: int(negative.Int64),
		AverageRating: avg.Float64,
	}, nil
}

const reviewColumns = `review_id, customer_id, product_id, rating, review_text, review_date, sentiment`

// ReviewsByCustomer returns all reviews written by a customer
func (s *Store) ReviewsByCustomer(ctx context.Context, customerID int64) ([]store.Review, error) {
	return s.queryReviews(ctx, fmt.Sprintf("reviews for customer %d", customerID),
		`SELECT `+reviewColumns+` FROM reviews WHERE customer_id = ? ORDER BY review_id`, customerID)
}

// ReviewsByProduct returns all reviews of a product
func (s *Store) ReviewsByProduct(ctx context.Context, productID int64) ([]store.Review, error) {
	return s.queryReviews(ctx, fmt.Sprintf("reviews for product %d", productID),
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = ? ORDER BY review_id`, productID)
}

// ReviewsBySentiment returns all reviews carrying the given label
func (s *Store) ReviewsBySentiment(ctx context.Context, sentiment store.Sentiment) ([]store.Review, error) {
	return s.queryReviews(ctx, fmt.Sprintf("%s reviews", sentiment),
		`SELECT `+reviewColumns+` FROM reviews WHERE sentiment = ? ORDER BY review_id`, string(sentiment))
}

func (s *Store) queryReviews(ctx context.Context, op, query string, args ...interface{}) ([]store.Review, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var out []store.Review
	for rows.Next() {
		var (
			r         store.Review
			date      dateValue
			sentiment string
		)
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.ProductID, &r.Rating, &r.Text, &date, &sentiment); err != nil {
			return nil, unavailable(op, err)
		}
		r.Date = date.Time
		r.Sentiment = store.Sentiment(sentiment)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return out, nil
}

// PurchasedProducts returns the distinct product ids a customer has reviewed
func (s *Store) PurchasedProducts(ctx context.Context, customerID int64) (map[int64]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT product_id FROM reviews WHERE customer_id = ?`, customerID)
	if err != nil {
		return nil, unavailable(fmt.Sprintf("purchases of customer %d", customerID), err)
	}
	defer rows.Close()

	purchased := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan purchased product", err)
		}
		purchased[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Sprintf("purchases of customer %d", customerID), err)
	}
	return purchased, nil
}

// Overview returns table-wide counts and the sentiment distribution
func (s *Store) Overview(ctx context.Context) (store.Overview, error) {
	var (
		o                           store.Overview
		avg                         sql.NullFloat64
		positive, negative, neutral sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT
	COUNT(DISTINCT customer_id),
	COUNT(DISTINCT product_id),
	COUNT(*),
	AVG(rating),
	SUM(CASE WHEN sentiment = 'Positive' THEN 1 ELSE 0 END),
	SUM(CASE WHEN sentiment = 'Negative' THEN 1 ELSE 0 END),
	SUM(CASE WHEN sentiment = 'Neutral' THEN 1 ELSE 0 END)
FROM reviews`).Scan(&o.TotalCustomers, &o.TotalProducts, &o.TotalReviews, &avg, &positive, &negative, &neutral)
	if err != nil {
		return store.Overview{}, unavailable("overview", err)
	}
	o.AverageRating = avg.Float64
	o.PositiveCount = int(positive.Int64)
	o.NegativeCount = int(negative.Int64)
	o.NeutralCount = int(neutral.Int64)
	return o, nil
}

// UpsertCustomer inserts or updates a customer
func (s *Store) UpsertCustomer(ctx context.Context, c store.Customer) error {
	stmt := `INSERT INTO customers (customer_id, name, age_group, gender, join_date) VALUES (?, ?, ?, ?, ?)` +
		s.dialect.upsert("customer_id", "name", "age_group", "gender", "join_date")
	if _, err := s.db.ExecContext(ctx, stmt, c.ID, c.Name, c.AgeGroup, c.Gender, c.JoinDate.Format(dateLayout)); err != nil {
		return unavailable(fmt.Sprintf("upsert customer %d", c.ID), err)
	}
	return nil
}

// UpsertProduct inserts or updates a product
func (s *Store) UpsertProduct(ctx context.Context, p store.Product) error {
	stmt := `INSERT INTO products (product_id, product_name, category, price) VALUES (?, ?, ?, ?)` +
		s.dialect.upsert("product_id", "product_name", "category", "price")
	if _, err := s.db.ExecContext(ctx, stmt, p.ID, p.Name, p.Category, p.Price); err != nil {
		return unavailable(fmt.Sprintf("upsert product %d", p.ID), err)
	}
	return nil
}

// UpsertReview inserts or updates a review
func (s *Store) UpsertReview(ctx context.Context, r store.Review) error {
	stmt := `INSERT INTO reviews (` + reviewColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)` +
		s.dialect.upsert("review_id", "customer_id", "product_id", "rating", "review_text", "review_date", "sentiment")
	_, err := s.db.ExecContext(ctx, stmt,
		r.ID, r.CustomerID, r.ProductID, r.Rating, r.Text, r.Date.Format(dateLayout), string(r.Sentiment))
	if err != nil {
		return unavailable(fmt.Sprintf("upsert review %s", r.ID), err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, internalerr.ErrStoreUnavailable, err)
}

// dateValue scans DATE columns from either driver: modernc returns time.Time
// or text, go-sql-driver/mysql returns []byte unless parseTime is set.
type dateValue struct {
	time.Time
}

func (d *dateValue) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = v
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	}
	return fmt.Errorf("unsupported date type %T", src)
}

func (d *dateValue) parse(s string) error {
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unparseable date %q", s)
}
