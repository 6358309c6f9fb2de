// Package dict implements a dictionary-driven Korean morphological analyzer.
//
// Each whitespace-separated word is split into script runs. Hangul runs are
// segmented by longest dictionary prefix, with particles and verbal endings
// peeled off the remainder. Words missing from the dictionary fall back to
// suffix stripping, so unseen nouns still surface as NNG tokens.
package dict

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/morph"
)

//go:embed default.yaml
var defaultDictionary []byte

// Dictionary is the on-disk description of the analyzer's vocabulary.
//
// Expected format:
//
//	version: "2024.1"
//	words:
//	  NNG: [배송, 포장]
//	  VA: [좋, 나쁘]
//	particles: [이, 가, 은, 는]
//	endings: [아요, 어요, 습니다]
type Dictionary struct {
	Version   string              `yaml:"version"`
	Words     map[string][]string `yaml:"words"`
	Particles []string            `yaml:"particles"`
	Endings   []string            `yaml:"endings"`
}

// Analyzer segments text using a Dictionary. Safe for concurrent use.
type Analyzer struct {
	version   string
	words     map[string]string // form -> tag
	maxRunes  int
	particles []string // longest first
	endings   []string // longest first
	suffixTag map[string]string
}

// New builds an analyzer from a dictionary.
func New(d Dictionary) (*Analyzer, error) {
	a := &Analyzer{
		version:   d.Version,
		words:     make(map[string]string),
		suffixTag: make(map[string]string),
	}

	tags := make([]string, 0, len(d.Words))
	for tag := range d.Words {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		for _, w := range d.Words[tag] {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			if prev, ok := a.words[w]; ok && prev != tag {
				return nil, fmt.Errorf("word %q tagged both %s and %s: %w", w, prev, tag, internalerr.ErrInvalidConfig)
			}
			a.words[w] = tag
			if n := len([]rune(w)); n > a.maxRunes {
				a.maxRunes = n
			}
		}
	}
	if len(a.words) == 0 {
		return nil, fmt.Errorf("dictionary has no words: %w", internalerr.ErrInvalidConfig)
	}

	a.particles = longestFirst(d.Particles)
	a.endings = longestFirst(d.Endings)
	for _, e := range a.endings {
		a.suffixTag[e] = morph.TagEnding
	}
	// Particles win when a suffix is listed as both.
	for _, p := range a.particles {
		a.suffixTag[p] = morph.TagParticle
	}

	return a, nil
}

// Default returns the analyzer backed by the built-in dictionary.
func Default() *Analyzer {
	d, err := Parse(defaultDictionary)
	if err != nil {
		panic(fmt.Sprintf("dict: built-in dictionary: %v", err))
	}
	a, err := New(d)
	if err != nil {
		panic(fmt.Sprintf("dict: built-in dictionary: %v", err))
	}
	return a
}

// Parse decodes dictionary YAML.
func Parse(data []byte) (Dictionary, error) {
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Dictionary{}, fmt.Errorf("parse dictionary: %w: %v", internalerr.ErrInvalidConfig, err)
	}
	return d, nil
}

// LoadFromYAML reads a dictionary file and builds an analyzer from it.
func LoadFromYAML(path string) (*Analyzer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(d)
}

// Version returns the dictionary version string.
func (a *Analyzer) Version() string { return a.version }

// Tokenize implements morph.Analyzer.
func (a *Analyzer) Tokenize(ctx context.Context, text string) ([]morph.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var tokens []morph.Token
	for _, word := range strings.Fields(text) {
		for _, run := range scriptRuns(word) {
			switch run.script {
			case scriptHangul:
				tokens = a.segment([]rune(run.text), tokens)
			case scriptLatin:
				tokens = append(tokens, morph.Token{Form: run.text, Tag: morph.TagForeign})
			case scriptDigit:
				tokens = append(tokens, morph.Token{Form: run.text, Tag: morph.TagNumber})
			}
		}
	}
	return tokens, nil
}

// segment appends the morphemes of one Hangul run to out.
func (a *Analyzer) segment(word []rune, out []morph.Token) []morph.Token {
	for len(word) > 0 {
		form, tag := a.longestPrefix(word)
		if form == "" {
			return a.unknown(word, out)
		}
		out = append(out, morph.Token{Form: form, Tag: tag})
		word = word[len([]rune(form)):]
		if len(word) == 0 {
			break
		}

		rest := string(word)
		if tag == morph.TagVerb || tag == morph.TagAdjective {
			// Whatever follows a predicate stem is inflection.
			return append(out, morph.Token{Form: rest, Tag: morph.TagEnding})
		}
		if suffix, ok := a.suffixTag[rest]; ok {
			return append(out, morph.Token{Form: rest, Tag: suffix})
		}
	}
	return out
}

func (a *Analyzer) longestPrefix(word []rune) (string, string) {
	n := len(word)
	if n > a.maxRunes {
		n = a.maxRunes
	}
	for ; n > 0; n-- {
		form := string(word[:n])
		if tag, ok := a.words[form]; ok {
			return form, tag
		}
	}
	return "", ""
}

// unknown handles a run with no dictionary prefix by stripping the longest
// known particle or ending.
func (a *Analyzer) unknown(word []rune, out []morph.Token) []morph.Token {
	s := string(word)
	for _, list := range [][]string{a.particles, a.endings} {
		for _, suffix := range list {
			if !strings.HasSuffix(s, suffix) || len(suffix) == len(s) {
				continue
			}
			stem := strings.TrimSuffix(s, suffix)
			return append(out,
				morph.Token{Form: stem, Tag: stemTag(suffix, a.suffixTag[suffix])},
				morph.Token{Form: suffix, Tag: a.suffixTag[suffix]},
			)
		}
	}
	if tag, ok := a.suffixTag[s]; ok {
		return append(out, morph.Token{Form: s, Tag: tag})
	}
	return append(out, morph.Token{Form: s, Tag: morph.TagGeneralNoun})
}

// stemTag guesses the tag of an unknown stem from what was stripped off it.
// Particles and light-verb endings (하다, 되다) attach to nouns.
func stemTag(suffix, suffixTag string) string {
	if suffixTag == morph.TagParticle {
		return morph.TagGeneralNoun
	}
	first, _ := firstRune(suffix)
	if strings.ContainsRune("하해했합한할함되돼됐됨", first) {
		return morph.TagGeneralNoun
	}
	return morph.TagVerb
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

func longestFirst(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len([]rune(out[i])) > len([]rune(out[j]))
	})
	return out
}

type script int

const (
	scriptOther script = iota
	scriptHangul
	scriptLatin
	scriptDigit
)

type run struct {
	script script
	text   string
}

func classify(r rune) script {
	switch {
	case r >= 0xAC00 && r <= 0xD7A3:
		return scriptHangul
	case r < unicode.MaxASCII && unicode.IsLetter(r):
		return scriptLatin
	case r < unicode.MaxASCII && unicode.IsDigit(r):
		return scriptDigit
	}
	return scriptOther
}

// scriptRuns splits a word where the script changes, dropping other runes.
func scriptRuns(word string) []run {
	var (
		runs    []run
		current strings.Builder
		cur     = scriptOther
	)
	flush := func() {
		if current.Len() > 0 && cur != scriptOther {
			runs = append(runs, run{script: cur, text: current.String()})
		}
		current.Reset()
	}
	for _, r := range word {
		s := classify(r)
		if s != cur {
			flush()
			cur = s
		}
		current.WriteRune(r)
	}
	flush()
	return runs
}
