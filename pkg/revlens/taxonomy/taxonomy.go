package taxonomy

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// DefaultOther is the bucket for keywords no category claims.
const DefaultOther = "기타"

// Category is a named problem area recognized by marker substrings.
type Category struct {
	Name    string   `yaml:"name" json:"name"`
	Markers []string `yaml:"markers" json:"markers"`
}

// Entry is one keyword and its count within a category.
type Entry struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Taxonomy assigns keywords to categories. The first category, in
// configured order, with a marker contained in the keyword wins.
// Matching is case-sensitive.
type Taxonomy struct {
	categories []Category
	other      string
}

// File is the YAML layout of a taxonomy.
//
// Expected format:
//
//	other: 기타
//	categories:
//	  - name: 품질
//	    markers: [고장, 불량, 내구성]
//	  - name: 배송
//	    markers: [배송, 지연, 포장]
type File struct {
	Other      string     `yaml:"other"`
	Categories []Category `yaml:"categories"`
}

// New creates a taxonomy. An empty other name means DefaultOther.
func New(categories []Category, other string) (*Taxonomy, error) {
	if other == "" {
		other = DefaultOther
	}
	seen := make(map[string]struct{}, len(categories))
	cats := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category without name: %w", internalerr.ErrInvalidConfig)
		}
		if c.Name == other {
			return nil, fmt.Errorf("category %q collides with the catch-all bucket: %w", c.Name, internalerr.ErrInvalidConfig)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q: %w", c.Name, internalerr.ErrInvalidConfig)
		}
		seen[c.Name] = struct{}{}

		markers := make([]string, 0, len(c.Markers))
		for _, m := range c.Markers {
			if m = strings.TrimSpace(m); m != "" {
				markers = append(markers, m)
			}
		}
		cats = append(cats, Category{Name: c.Name, Markers: markers})
	}
	return &Taxonomy{categories: cats, other: other}, nil
}

// Default returns the built-in review problem taxonomy.
func Default() *Taxonomy {
	t, err := New(DefaultCategories, DefaultOther)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: built-in categories: %v", err))
	}
	return t
}

// LoadFromYAML reads a taxonomy file.
func LoadFromYAML(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w: %v", path, internalerr.ErrInvalidConfig, err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy %s has no categories: %w", path, internalerr.ErrInvalidConfig)
	}
	return New(f.Categories, f.Other)
}

// CategoryFor returns the category a keyword belongs to.
func (t *Taxonomy) CategoryFor(keyword string) string {
	for _, c := range t.categories {
		for _, m := range c.Markers {
			if strings.Contains(keyword, m) {
				return c.Name
			}
		}
	}
	return t.other
}

// Categorize buckets keyword counts. Every keyword lands in exactly one
// bucket; buckets are sorted by count descending, then keyword ascending.
// Categories with no keywords are absent from the result.
func (t *Taxonomy) Categorize(counts map[string]int) map[string][]Entry {
	out := make(map[string][]Entry)
	for kw, n := range counts {
		cat := t.CategoryFor(kw)
		out[cat] = append(out[cat], Entry{Keyword: kw, Count: n})
	}
	for _, entries := range out {
		SortEntries(entries)
	}
	return out
}

// Names returns category names in configured order followed by the catch-all.
func (t *Taxonomy) Names() []string {
	names := make([]string, 0, len(t.categories)+1)
	for _, c := range t.categories {
		names = append(names, c.Name)
	}
	return append(names, t.other)
}

// Other returns the catch-all bucket name.
func (t *Taxonomy) Other() string { return t.other }

// Categories returns a copy of the configured categories.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Markers: append([]string(nil), c.Markers...)}
	}
	return out
}

// SortEntries orders by count descending, keyword ascending.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Keyword < entries[j].Keyword
	})
}
