// Package dataload bulk-loads customers, products and reviews from CSV and
// JSONL exports into a store.Writer.
package dataload

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/store"
)

// Source file names looked up by LoadDir.
const (
	CustomersFile    = "customers.csv"
	ProductsFile     = "products.csv"
	ReviewsFile      = "reviews.csv"
	ReviewsJSONLFile = "reviews.jsonl"
)

const dateLayout = "2006-01-02"

// Stats counts rows written and rows skipped as malformed.
type Stats struct {
	Loaded  int
	Skipped int
}

// ReviewRecord is one line of a reviews JSONL export.
type ReviewRecord struct {
	ReviewID   string `json:"review_id"`
	CustomerID int64  `json:"customer_id"`
	ProductID  int64  `json:"product_id"`
	Rating     int    `json:"rating"`
	Text       string `json:"review_text"`
	Date       string `json:"review_date"`
	Sentiment  string `json:"sentiment"`
}

// Loader writes parsed rows into a store.
type Loader struct {
	w   store.Writer
	log zerolog.Logger
}

// New creates a loader writing to w.
func New(w store.Writer) *Loader {
	return &Loader{w: w, log: logging.Component("dataload")}
}

// LoadDir loads customers, products and reviews from dir, in that order so
// reviews never reference rows that are not there yet. reviews.jsonl is
// used when reviews.csv is absent.
func (l *Loader) LoadDir(ctx context.Context, dir string) (map[string]Stats, error) {
	out := make(map[string]Stats, 3)
	steps := []struct {
		name string
		load func(context.Context, io.Reader) (Stats, error)
	}{
		{CustomersFile, l.Customers},
		{ProductsFile, l.Products},
		{ReviewsFile, l.ReviewsCSV},
	}
	for _, step := range steps {
		path := filepath.Join(dir, step.name)
		load := step.load
		if step.name == ReviewsFile {
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				path = filepath.Join(dir, ReviewsJSONLFile)
				load = l.ReviewsJSONL
			}
		}
		st, err := l.loadFile(ctx, path, load)
		if err != nil {
			return out, err
		}
		out[filepath.Base(path)] = st
	}
	return out, nil
}

func (l *Loader) loadFile(ctx context.Context, path string, load func(context.Context, io.Reader) (Stats, error)) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := load(ctx, f)
	if err != nil {
		return st, fmt.Errorf("load %s: %w", path, err)
	}
	l.log.Info().Str("file", path).Int("loaded", st.Loaded).Int("skipped", st.Skipped).Msg("file loaded")
	return st, nil
}

// Customers loads customer_id,name,age_group,gender,join_date rows.
func (l *Loader) Customers(ctx context.Context, r io.Reader) (Stats, error) {
	return l.csvRows(ctx, r, []string{"customer_id", "name", "age_group", "gender", "join_date"},
		func(ctx context.Context, row record) error {
			id, err := row.int64("customer_id")
			if err != nil {
				return err
			}
			joined, err := row.date("join_date")
			if err != nil {
				return err
			}
			return writeFailure(l.w.UpsertCustomer(ctx, store.Customer{
				ID:       id,
				Name:     row.str("name"),
				AgeGroup: row.str("age_group"),
				Gender:   row.str("gender"),
				JoinDate: joined,
			}))
		})
}

// Products loads product_id,product_name,category,price rows.
func (l *Loader) Products(ctx context.Context, r io.Reader) (Stats, error) {
	return l.csvRows(ctx, r, []string{"product_id", "product_name", "category", "price"},
		func(ctx context.Context, row record) error {
			id, err := row.int64("product_id")
			if err != nil {
				return err
			}
			price, err := row.int64("price")
			if err != nil {
				return err
			}
			return writeFailure(l.w.UpsertProduct(ctx, store.Product{
				ID:       id,
				Name:     row.str("product_name"),
				Category: row.str("category"),
				Price:    price,
			}))
		})
}

// ReviewsCSV loads review_id,customer_id,product_id,rating,review_text,
// review_date,sentiment rows.
func (l *Loader) ReviewsCSV(ctx context.Context, r io.Reader) (Stats, error) {
	return l.csvRows(ctx, r, []string{"review_id", "customer_id", "product_id", "rating", "review_text", "review_date", "sentiment"},
		func(ctx context.Context, row record) error {
			rec := ReviewRecord{
				ReviewID:  row.str("review_id"),
				Text:      row.str("review_text"),
				Date:      row.str("review_date"),
				Sentiment: row.str("sentiment"),
			}
			var err error
			if rec.CustomerID, err = row.int64("customer_id"); err != nil {
				return err
			}
			if rec.ProductID, err = row.int64("product_id"); err != nil {
				return err
			}
			rating, err := row.int64("rating")
			if err != nil {
				return err
			}
			rec.Rating = int(rating)
			return l.review(ctx, rec)
		})
}

// ReviewsJSONL loads one ReviewRecord per line. Malformed lines are skipped.
func (l *Loader) ReviewsJSONL(ctx context.Context, r io.Reader) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return st, err
		}
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec ReviewRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			st.Skipped++
			l.log.Warn().Int("line", line).Err(err).Msg("skipping malformed review line")
			continue
		}
		if err := l.review(ctx, rec); err != nil {
			if errors.Is(err, internalerr.ErrInvalidInput) {
				st.Skipped++
				l.log.Warn().Int("line", line).Err(err).Msg("skipping invalid review")
				continue
			}
			return st, err
		}
		st.Loaded++
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("read reviews: %w", err)
	}
	return st, nil
}

func (l *Loader) review(ctx context.Context, rec ReviewRecord) error {
	if strings.TrimSpace(rec.ReviewID) == "" {
		return fmt.Errorf("empty review_id: %w", internalerr.ErrInvalidInput)
	}
	if rec.Rating < 1 || rec.Rating > 5 {
		return fmt.Errorf("review %s rating %d outside 1..5: %w", rec.ReviewID, rec.Rating, internalerr.ErrInvalidInput)
	}
	sentiment, err := store.ParseSentiment(rec.Sentiment)
	if err != nil {
		return fmt.Errorf("review %s: %w: %w", rec.ReviewID, internalerr.ErrInvalidInput, err)
	}
	date, err := parseDate(rec.Date)
	if err != nil {
		return fmt.Errorf("review %s: %w", rec.ReviewID, err)
	}
	return writeFailure(l.w.UpsertReview(ctx, store.Review{
		ID:         rec.ReviewID,
		CustomerID: rec.CustomerID,
		ProductID:  rec.ProductID,
		Rating:     rec.Rating,
		Text:       rec.Text,
		Sentiment:  sentiment,
		Date:       date,
	}))
}

// writeFailure tags writer errors so csvRows aborts instead of skipping.
func writeFailure(err error) error {
	if err != nil {
		return writeError{err}
	}
	return nil
}

type writeError struct{ err error }

func (e writeError) Error() string { return e.err.Error() }
func (e writeError) Unwrap() error { return e.err }

// record is one CSV row addressed by header name.
type record struct {
	index  map[string]int
	fields []string
}

func (r record) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r record) int64(col string) (int64, error) {
	v, err := strconv.ParseInt(r.str(col), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer: %w", col, r.str(col), internalerr.ErrInvalidInput)
	}
	return v, nil
}

func (r record) date(col string) (time.Time, error) {
	return parseDate(r.str(col))
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date %q: %w", s, internalerr.ErrInvalidInput)
}

// csvRows reads a header row, checks the required columns and hands each
// row to fn. Rows that fail to parse are skipped with a warning; writer
// failures abort the load.
func (l *Loader) csvRows(ctx context.Context, r io.Reader, required []string, fn func(context.Context, record) error) (Stats, error) {
	var st Stats
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read header: %w: %w", internalerr.ErrInvalidInput, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return st, fmt.Errorf("missing column %q: %w", col, internalerr.ErrInvalidInput)
		}
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			st.Skipped++
			l.log.Warn().Int("line", line).Err(err).Msg("skipping unreadable row")
			continue
		}
		if err := fn(ctx, record{index: index, fields: fields}); err != nil {
			var we writeError
			if errors.As(err, &we) {
				return st, we.err
			}
			st.Skipped++
			l.log.Warn().Int("line", line).Err(err).Msg("skipping malformed row")
			continue
		}
		st.Loaded++
	}
	return st, nil
}
