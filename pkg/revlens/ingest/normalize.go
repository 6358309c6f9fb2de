package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// maxRepeat is the longest run of one character Normalize keeps.
const maxRepeat = 2

var markupPattern = regexp.MustCompile(`<(?:[a-zA-Z][a-zA-Z0-9]*|/[a-zA-Z][a-zA-Z0-9]*|!--)[^>]*>`)

// Normalize cleans review text before morphological analysis:
//
//  1. markup is reduced to its text nodes
//  2. NFC composition, so decomposed jamo become syllables
//  3. anything but Hangul syllables, ASCII letters, digits and whitespace becomes a space
//  4. runs of one character longer than two collapse to two ("너무무무" -> "너무무")
//  5. whitespace collapses to single spaces and the result is trimmed
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	if markupPattern.MatchString(text) {
		text = stripHTML(text)
	}
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))

	var (
		prev    rune = -1
		run     int
		inSpace = true // drops leading whitespace
	)
	for _, r := range text {
		if !keepRune(r) {
			r = ' '
		}
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			prev, run = -1, 0
			continue
		}
		inSpace = false
		if r == prev {
			run++
			if run >= maxRepeat {
				continue
			}
		} else {
			prev, run = r, 0
		}
		b.WriteRune(r)
	}

	return strings.TrimRight(b.String(), " ")
}

func keepRune(r rune) bool {
	switch {
	case r >= 0xAC00 && r <= 0xD7A3:
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	return unicode.IsSpace(r)
}

// stripHTML returns the text content of an HTML fragment. Script and style
// bodies are dropped; block boundaries become spaces.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return buf.String()
}
