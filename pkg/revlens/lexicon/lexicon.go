package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// Lexicon holds the stopword set and the ordered sentiment word lists.
//
// Sentiment entries are matched as substrings of a token's surface form, in
// the order given, so more specific entries should come first.
type Lexicon struct {
	version   string
	stopwords map[string]struct{}
	positive  []string
	negative  []string
}

// File is the YAML layout of a lexicon.
//
// Expected format:
//
//	version: "2024.1"
//	stopwords: [이, 가, 은, 는]
//	positive: [좋다, 만족, 추천]
//	negative: [불만, 실망, 고장]
type File struct {
	Version   string   `yaml:"version"`
	Stopwords []string `yaml:"stopwords"`
	Positive  []string `yaml:"positive"`
	Negative  []string `yaml:"negative"`
}

// New creates a lexicon. Empty entries are dropped and duplicates collapse
// to their first occurrence.
func New(stopwords, positive, negative []string) *Lexicon {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		if w = strings.TrimSpace(w); w != "" {
			stops[w] = struct{}{}
		}
	}
	return &Lexicon{
		stopwords: stops,
		positive:  dedupe(positive),
		negative:  dedupe(negative),
	}
}

// Default returns the built-in Korean review lexicon.
func Default() *Lexicon {
	lex := New(DefaultStopwords, DefaultPositive, DefaultNegative)
	lex.version = "builtin"
	return lex
}

// LoadFromYAML reads a lexicon file. Sections left out of the file fall
// back to the built-in lists.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w: %v", path, internalerr.ErrInvalidConfig, err)
	}

	if f.Stopwords == nil {
		f.Stopwords = DefaultStopwords
	}
	if f.Positive == nil {
		f.Positive = DefaultPositive
	}
	if f.Negative == nil {
		f.Negative = DefaultNegative
	}

	lex := New(f.Stopwords, f.Positive, f.Negative)
	lex.version = f.Version
	return lex, nil
}

// Version identifies the loaded word lists.
func (l *Lexicon) Version() string { return l.version }

// IsStopword reports whether form is a stopword. Matching is exact.
func (l *Lexicon) IsStopword(form string) bool {
	_, ok := l.stopwords[form]
	return ok
}

// MatchPositive returns the first positive entry contained in form.
func (l *Lexicon) MatchPositive(form string) (string, bool) {
	return firstContained(l.positive, form)
}

// MatchNegative returns the first negative entry contained in form.
func (l *Lexicon) MatchNegative(form string) (string, bool) {
	return firstContained(l.negative, form)
}

// Positive returns a copy of the positive list.
func (l *Lexicon) Positive() []string { return append([]string(nil), l.positive...) }

// Negative returns a copy of the negative list.
func (l *Lexicon) Negative() []string { return append([]string(nil), l.negative...) }

// StopwordCount returns the number of stopwords.
func (l *Lexicon) StopwordCount() int { return len(l.stopwords) }

func firstContained(entries []string, form string) (string, bool) {
	if form == "" {
		return "", false
	}
	for _, e := range entries {
		if strings.Contains(form, e) {
			return e, true
		}
	}
	return "", false
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, w := range in {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
