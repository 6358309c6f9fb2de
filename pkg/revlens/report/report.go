// Package report renders improvement priority lists as JSON, CSV and a
// console summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/revlens/pkg/revlens/negative"
)

// Default output file names, relative to the report directory.
const (
	DefaultJSONName = "improvement_priority.json"
	DefaultCSVName  = "improvement_priority.csv"
)

// CSVHeader is the column header row of the CSV report.
var CSVHeader = []string{
	"순위", "제품ID", "제품명", "카테고리",
	"부정키워드수", "부정리뷰수", "전체리뷰수",
	"평균별점", "부정비율(%)", "주요문제키워드",
}

// utf8BOM lets spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Report is one generated improvement priority report.
type Report struct {
	ID                    string                    `json:"report_id"`
	GeneratedAt           time.Time                 `json:"generated_at"`
	TotalProductsAnalyzed int                       `json:"total_products_analyzed"`
	Priorities            []negative.PriorityRecord `json:"improvement_priority_list"`
}

// New wraps a priority list in a report stamped with a fresh id.
func New(records []negative.PriorityRecord, now time.Time) *Report {
	if records == nil {
		records = []negative.PriorityRecord{}
	}
	return &Report{
		ID:                    ulid.Make().String(),
		GeneratedAt:           now.UTC(),
		TotalProductsAnalyzed: len(records),
		Priorities:            records,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteCSV writes a BOM-prefixed CSV with one row per product in rank order.
func (r *Report) WriteCSV(w io.Writer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	for i, p := range r.Priorities {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(p.ProductID, 10),
			p.ProductName,
			p.Category,
			strconv.Itoa(p.TotalNegativeKeywordCount),
			strconv.Itoa(p.NegativeReviewCount),
			strconv.Itoa(p.TotalReviewCount),
			formatFloat(p.AverageRating),
			formatFloat(p.NegativeRatio),
			KeywordSummary(p, 0),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteSummary prints a human-readable overview of the report.
func (r *Report) WriteSummary(w io.Writer) error {
	rule := strings.Repeat("=", 80)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n개선 우선순위 상품 Top %d\n%s\n", rule, len(r.Priorities), rule)
	for i, p := range r.Priorities {
		fmt.Fprintf(&b, "\n[%d위] %s (ID: %d)\n", i+1, p.ProductName, p.ProductID)
		fmt.Fprintf(&b, "  카테고리: %s\n", p.Category)
		fmt.Fprintf(&b, "  평균 별점: %s점\n", formatFloat(p.AverageRating))
		fmt.Fprintf(&b, "  부정 리뷰: %d개 / %d개 (%s%%)\n", p.NegativeReviewCount, p.TotalReviewCount, formatFloat(p.NegativeRatio))
		fmt.Fprintf(&b, "  부정 키워드: %d개\n", p.TotalNegativeKeywordCount)

		b.WriteString("\n  주요 문제점:\n")
		for j, kw := range p.TopNegativeKeywords {
			fmt.Fprintf(&b, "    %d. %s (%d회)\n", j+1, kw.Keyword, kw.Count)
		}

		b.WriteString("\n  문제 카테고리:\n")
		names := make([]string, 0, len(p.ProblemCategories))
		for name := range p.ProblemCategories {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			entries := p.ProblemCategories[name]
			if len(entries) == 0 {
				continue
			}
			if len(entries) > 2 {
				entries = entries[:2]
			}
			parts := make([]string, len(entries))
			for j, e := range entries {
				parts[j] = fmt.Sprintf("%s(%d)", e.Keyword, e.Count)
			}
			fmt.Fprintf(&b, "    - %s: %s\n", name, strings.Join(parts, ", "))
		}
	}
	fmt.Fprintf(&b, "\n%s\n", rule)
	_, err := io.WriteString(w, b.String())
	return err
}

// KeywordSummary joins a record's top keywords as "k(c), k(c)". n <= 0
// means all of them.
func KeywordSummary(p negative.PriorityRecord, n int) string {
	entries := p.TopNegativeKeywords
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s(%d)", e.Keyword, e.Count)
	}
	return strings.Join(parts, ", ")
}

// Save writes the JSON and CSV reports into dir, creating it if needed,
// and returns the two paths.
func (r *Report) Save(dir string) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}
	jsonPath = filepath.Join(dir, DefaultJSONName)
	csvPath = filepath.Join(dir, DefaultCSVName)
	if err := writeFile(jsonPath, r.WriteJSON); err != nil {
		return "", "", err
	}
	if err := writeFile(csvPath, r.WriteCSV); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatFloat prints whole numbers with one decimal, like "4.0".
func formatFloat(x float64) string {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
