package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/cognicore/revlens/pkg/revlens/negative"
	"github.com/cognicore/revlens/pkg/revlens/taxonomy"
)

func sampleRecords() []negative.PriorityRecord {
	return []negative.PriorityRecord{
		{
			ProductID:                 10,
			ProductName:               "선풍기, 대형",
			Category:                  "가전",
			TotalNegativeKeywordCount: 3,
			NegativeReviewCount:       3,
			TotalReviewCount:          4,
			AverageRating:             2,
			NegativeRatio:             75,
			TopNegativeKeywords: []taxonomy.Entry{
				{Keyword: "고장", Count: 2},
				{Keyword: "소음", Count: 1},
			},
			ProblemCategories: map[string][]taxonomy.Entry{
				"품질": {{Keyword: "고장", Count: 2}},
				"성능": {{Keyword: "소음", Count: 1}},
			},
		},
		{
			ProductID:                 20,
			ProductName:               "텀블러",
			Category:                  "생활용품",
			TotalNegativeKeywordCount: 1,
			NegativeReviewCount:       1,
			TotalReviewCount:          3,
			AverageRating:             3.67,
			NegativeRatio:             33.3,
			TopNegativeKeywords:       []taxonomy.Entry{{Keyword: "배송", Count: 1}},
			ProblemCategories:         map[string][]taxonomy.Entry{"배송": {{Keyword: "배송", Count: 1}}},
		},
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2025, 11, 5, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	r := New(sampleRecords(), now)
	if r.ID == "" || len(r.ID) != 26 {
		t.Errorf("report id = %q, want a ULID", r.ID)
	}
	if r.TotalProductsAnalyzed != 2 {
		t.Errorf("total = %d", r.TotalProductsAnalyzed)
	}
	if r.GeneratedAt.Location() != time.UTC || !r.GeneratedAt.Equal(now) {
		t.Errorf("generated_at = %v", r.GeneratedAt)
	}
	if empty := New(nil, now); empty.Priorities == nil || empty.TotalProductsAnalyzed != 0 {
		t.Errorf("empty report = %+v", empty)
	}
}

func TestWriteJSON(t *testing.T) {
	r := New(sampleRecords(), time.Now())
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	for _, key := range []string{"report_id", "generated_at", "total_products_analyzed", "improvement_priority_list"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	list := decoded["improvement_priority_list"].([]any)
	first := list[0].(map[string]any)
	if first["product_name"] != "선풍기, 대형" || first["negative_ratio"] != 75.0 {
		t.Errorf("first record = %v", first)
	}
	if !strings.Contains(buf.String(), "고장") {
		t.Error("Korean text should be written unescaped")
	}
}

func TestWriteCSV(t *testing.T) {
	r := New(sampleRecords(), time.Now())
	var buf bytes.Buffer
	if err := r.WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), utf8BOM) {
		t.Fatal("CSV must start with a UTF-8 BOM")
	}

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if !reflect.DeepEqual(rows[0], CSVHeader) {
		t.Errorf("header = %v", rows[0])
	}
	want := []string{"1", "10", "선풍기, 대형", "가전", "3", "3", "4", "2.0", "75.0", "고장(2), 소음(1)"}
	if !reflect.DeepEqual(rows[1], want) {
		t.Errorf("row 1 = %v, want %v", rows[1], want)
	}
	if rows[2][0] != "2" || rows[2][7] != "3.67" || rows[2][8] != "33.3" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := New(sampleRecords(), time.Now()).WriteSummary(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"[1위] 선풍기, 대형 (ID: 10)", "부정 리뷰: 3개 / 4개 (75.0%)", "1. 고장 (2회)", "- 성능: 소음(1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	jsonPath, csvPath, err := New(sampleRecords(), time.Now()).Save(dir)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, p := range []string{jsonPath, csvPath} {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", p, err)
		}
	}
	if filepath.Base(csvPath) != DefaultCSVName {
		t.Errorf("csv path = %s", csvPath)
	}
}

func TestKeywordSummaryLimit(t *testing.T) {
	p := sampleRecords()[0]
	if got := KeywordSummary(p, 1); got != "고장(2)" {
		t.Errorf("KeywordSummary(1) = %q", got)
	}
	if got := KeywordSummary(negative.PriorityRecord{}, 0); got != "" {
		t.Errorf("empty summary = %q", got)
	}
}
