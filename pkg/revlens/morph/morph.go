// Package morph defines the morphological analyzer contract used by keyword
// extraction. Implementations live in the dict and remote subpackages.
package morph

import "context"

// Sejong part-of-speech tags used across the module.
const (
	TagGeneralNoun = "NNG"
	TagProperNoun  = "NNP"
	TagVerb        = "VV"
	TagAdjective   = "VA"
	TagForeign     = "SL" // Latin-script word
	TagNumber      = "SN"
	TagParticle    = "JX"
	TagEnding      = "EC"
)

// Token is one morpheme with its tag.
type Token struct {
	Form string `json:"form" yaml:"form"`
	Tag  string `json:"tag" yaml:"tag"`
}

// Analyzer splits normalized text into tagged morphemes.
type Analyzer interface {
	Tokenize(ctx context.Context, text string) ([]Token, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, text string) ([]Token, error)

// Tokenize implements Analyzer.
func (f AnalyzerFunc) Tokenize(ctx context.Context, text string) ([]Token, error) {
	return f(ctx, text)
}

// IsNoun reports whether tag is a general or proper noun.
func IsNoun(tag string) bool {
	return tag == TagGeneralNoun || tag == TagProperNoun
}
