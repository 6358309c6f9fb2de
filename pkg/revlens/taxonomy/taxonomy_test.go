package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

func TestCategoryFor(t *testing.T) {
	tax := Default()
	tests := []struct {
		keyword string
		want    string
	}{
		{"고장", "품질"},
		{"배송", "배송"},
		{"늦", "배송"},
		{"비싸", "가격"},
		{"환불", "서비스"},
		{"소음", "성능"},
		{"불편", "사용성"},
		{"색상", "기타"},
		{"cs", "기타"}, // case-sensitive
		{"CS", "서비스"},
	}
	for _, tt := range tests {
		if got := tax.CategoryFor(tt.keyword); got != tt.want {
			t.Errorf("CategoryFor(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}

func TestCategoryForFirstMatchWins(t *testing.T) {
	tax, err := New([]Category{
		{Name: "A", Markers: []string{"배"}},
		{Name: "B", Markers: []string{"배송"}},
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := tax.CategoryFor("배송"); got != "A" {
		t.Errorf("CategoryFor = %q, want first configured category", got)
	}
}

func TestCategorizeScenario(t *testing.T) {
	got := Default().Categorize(map[string]int{"고장": 5, "배송": 3, "색상": 1})
	want := map[string][]Entry{
		"품질": {{Keyword: "고장", Count: 5}},
		"배송": {{Keyword: "배송", Count: 3}},
		"기타": {{Keyword: "색상", Count: 1}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categorize = %v, want %v", got, want)
	}
}

func TestCategorizePartition(t *testing.T) {
	counts := map[string]int{
		"고장": 4, "불량": 4, "포장": 2, "파손": 7, "가격": 1,
		"응답": 3, "발열": 2, "설명서": 1, "냄새": 6, "디자인": 6,
	}
	buckets := Default().Categorize(counts)

	seen := make(map[string]int)
	for cat, entries := range buckets {
		for i, e := range entries {
			seen[e.Keyword]++
			if e.Count != counts[e.Keyword] {
				t.Errorf("%s/%s count = %d, want %d", cat, e.Keyword, e.Count, counts[e.Keyword])
			}
			if i > 0 {
				prev := entries[i-1]
				if prev.Count < e.Count || (prev.Count == e.Count && prev.Keyword > e.Keyword) {
					t.Errorf("bucket %s not sorted at %d: %v", cat, i, entries)
				}
			}
		}
	}
	if len(seen) != len(counts) {
		t.Errorf("partition covers %d keywords, want %d", len(seen), len(counts))
	}
	for kw, n := range seen {
		if n != 1 {
			t.Errorf("keyword %q appears in %d buckets", kw, n)
		}
	}

	other := buckets["기타"]
	if len(other) != 2 || other[0].Keyword != "냄새" || other[1].Keyword != "디자인" {
		t.Errorf("tie order in 기타 = %v", other)
	}
}

func TestCategorizeEmpty(t *testing.T) {
	if got := Default().Categorize(nil); len(got) != 0 {
		t.Errorf("Categorize(nil) = %v", got)
	}
}

func TestNames(t *testing.T) {
	want := []string{"품질", "배송", "가격", "서비스", "성능", "사용성", "기타"}
	if got := Default().Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v", got)
	}
}

func TestNewValidation(t *testing.T) {
	cases := [][]Category{
		{{Name: ""}},
		{{Name: "A"}, {Name: "A"}},
		{{Name: "기타"}},
	}
	for _, cats := range cases {
		if _, err := New(cats, ""); !errors.Is(err, internalerr.ErrInvalidConfig) {
			t.Errorf("New(%v) err = %v, want ErrInvalidConfig", cats, err)
		}
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	content := `other: Other
categories:
  - name: Shipping
    markers: [late, box]
  - name: Quality
    markers: [broken]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	tax, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if got := tax.CategoryFor("broken"); got != "Quality" {
		t.Errorf("CategoryFor(broken) = %q", got)
	}
	if got := tax.CategoryFor("color"); got != "Other" {
		t.Errorf("CategoryFor(color) = %q", got)
	}
	if tax.Other() != "Other" {
		t.Errorf("Other = %q", tax.Other())
	}
}
