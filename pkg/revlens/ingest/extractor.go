package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/internal/metrics"
	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/lexicon"
	"github.com/cognicore/revlens/pkg/revlens/morph"
)

// DefaultTags selects nouns, verbs and adjectives.
var DefaultTags = []string{morph.TagGeneralNoun, morph.TagProperNoun, morph.TagVerb, morph.TagAdjective}

// DefaultMinNounLength is the shortest noun, in runes, Nouns keeps by default.
const DefaultMinNounLength = 2

// SentimentKeywords holds the surface forms that hit each sentiment lexicon.
type SentimentKeywords struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// Extractor turns review text into keywords. It never fails: analyzer
// errors are logged and counted, and the affected text yields nothing.
type Extractor struct {
	analyzer morph.Analyzer
	lex      *lexicon.Lexicon
	name     string
	log      zerolog.Logger
}

// NewExtractor creates an extractor. A nil lexicon means lexicon.Default().
func NewExtractor(a morph.Analyzer, lex *lexicon.Lexicon) *Extractor {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Extractor{
		analyzer: a,
		lex:      lex,
		name:     analyzerName(a),
		log:      logging.Component("ingest"),
	}
}

// Lexicon returns the lexicon in use.
func (e *Extractor) Lexicon() *lexicon.Lexicon { return e.lex }

// tokens normalizes and analyzes text. Analyzer failures are logged and
// yield no tokens.
func (e *Extractor) tokens(ctx context.Context, text string) []morph.Token {
	toks, err := e.analyze(ctx, text)
	if err != nil {
		return nil
	}
	return toks
}

// analyze normalizes text before handing it to the analyzer, so repeated
// characters are collapsed to two and symbols never reach it.
func (e *Extractor) analyze(ctx context.Context, text string) ([]morph.Token, error) {
	clean := Normalize(text)
	if clean == "" {
		return nil, nil
	}
	toks, err := e.analyzer.Tokenize(ctx, clean)
	if err != nil {
		metrics.AnalyzerErrors.WithLabelValues(e.name).Inc()
		e.log.Warn().Err(err).Str("analyzer", e.name).Int("text_len", len(clean)).Msg("morphological analysis failed")
		return nil, err
	}
	return toks, nil
}

// Keywords returns non-stopword forms whose tag is in tags, in text order.
// With no tags, DefaultTags applies.
func (e *Extractor) Keywords(ctx context.Context, text string, tags ...string) []string {
	return e.keywords(e.tokens(ctx, text), tags)
}

// StrictKeywords is Keywords that reports analyzer failures instead of
// returning an empty list. Batch builds use it so an analyzer outage is
// not mistaken for reviews without keywords.
func (e *Extractor) StrictKeywords(ctx context.Context, text string, tags ...string) ([]string, error) {
	toks, err := e.analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrAnalyzerUnavailable, err)
	}
	return e.keywords(toks, tags), nil
}

func (e *Extractor) keywords(toks []morph.Token, tags []string) []string {
	if len(tags) == 0 {
		tags = DefaultTags
	}
	allowed := tagSet(tags)

	var out []string
	for _, tok := range toks {
		if _, ok := allowed[tok.Tag]; !ok {
			continue
		}
		if e.lex.IsStopword(tok.Form) {
			continue
		}
		out = append(out, tok.Form)
	}
	return out
}

// Nouns returns general and proper nouns at least minLength runes long.
// minLength <= 0 means DefaultMinNounLength.
func (e *Extractor) Nouns(ctx context.Context, text string, minLength int) []string {
	if minLength <= 0 {
		minLength = DefaultMinNounLength
	}
	var out []string
	for _, tok := range e.tokens(ctx, text) {
		if morph.IsNoun(tok.Tag) && len([]rune(tok.Form)) >= minLength {
			out = append(out, tok.Form)
		}
	}
	return out
}

// Sentiment scans every token against both lexicons. A token is recorded
// under a polarity when any entry of that lexicon is a substring of it;
// the two checks are independent. Results are deduplicated, first-seen order.
func (e *Extractor) Sentiment(ctx context.Context, text string) SentimentKeywords {
	var (
		sk      SentimentKeywords
		seenPos = make(map[string]struct{})
		seenNeg = make(map[string]struct{})
	)
	for _, tok := range e.tokens(ctx, text) {
		if _, ok := e.lex.MatchPositive(tok.Form); ok {
			if _, dup := seenPos[tok.Form]; !dup {
				seenPos[tok.Form] = struct{}{}
				sk.Positive = append(sk.Positive, tok.Form)
			}
		}
		if _, ok := e.lex.MatchNegative(tok.Form); ok {
			if _, dup := seenNeg[tok.Form]; !dup {
				seenNeg[tok.Form] = struct{}{}
				sk.Negative = append(sk.Negative, tok.Form)
			}
		}
	}
	return sk
}

// Morphemes returns tagged tokens, all of them when tags is empty.
func (e *Extractor) Morphemes(ctx context.Context, text string, tags ...string) []morph.Token {
	toks := e.tokens(ctx, text)
	if len(tags) == 0 {
		return toks
	}
	allowed := tagSet(tags)
	var out []morph.Token
	for _, tok := range toks {
		if _, ok := allowed[tok.Tag]; ok {
			out = append(out, tok)
		}
	}
	return out
}

// Clean normalizes text and optionally rebuilds it from its non-stopword
// morphemes.
func (e *Extractor) Clean(ctx context.Context, text string, removeStopwords bool) string {
	clean := Normalize(text)
	if !removeStopwords || clean == "" {
		return clean
	}
	var forms []string
	for _, tok := range e.tokens(ctx, clean) {
		if !e.lex.IsStopword(tok.Form) {
			forms = append(forms, tok.Form)
		}
	}
	return strings.Join(strings.Fields(strings.Join(forms, " ")), " ")
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

type namer interface {
	Name() string
}

func analyzerName(a morph.Analyzer) string {
	if n, ok := a.(namer); ok {
		return n.Name()
	}
	name := fmt.Sprintf("%T", a)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	return strings.TrimPrefix(name, "*")
}
