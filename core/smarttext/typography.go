// Package smarttext converts the rich-text (HTML) prose layer into formatted
// paragraph streams and applies typographic rewriting: smart quotes, em
// dashes, and space normalization.
//
// The pipeline never fails. Malformed HTML degrades to plain text rather than
// surfacing an error; typographic rewriting is pure string work.
package smarttext

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Typographic replacement runes.
const (
	leftDoubleQuote  = '“'
	rightDoubleQuote = '”'
	leftSingleQuote  = '‘'
	rightSingleQuote = '’'
	emDash           = '—'
)

// opensQuote reports whether a quote following r should open. A zero rune
// means start of input.
func opensQuote(r rune) bool {
	if r == 0 {
		return true
	}
	return unicode.IsSpace(r) || r == '(' || r == '[' || r == '{'
}

// SmartQuotes rewrites straight quotes into curly quotes.
//
// A double quote opens when preceded by nothing, whitespace, or an opening
// bracket, and closes otherwise. An apostrophe between two letters is a
// contraction and always becomes a right single quote; any other single
// quote follows the same open/close rule as double quotes.
func SmartQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for i, r := range s {
		switch r {
		case '"':
			if opensQuote(prev) {
				b.WriteRune(leftDoubleQuote)
			} else {
				b.WriteRune(rightDoubleQuote)
			}
		case '\'':
			next, _ := utf8.DecodeRuneInString(s[i+utf8.RuneLen(r):])
			if unicode.IsLetter(prev) && unicode.IsLetter(next) {
				b.WriteRune(rightSingleQuote)
			} else if opensQuote(prev) {
				b.WriteRune(leftSingleQuote)
			} else {
				b.WriteRune(rightSingleQuote)
			}
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

// NormalizePunctuation collapses dash sequences to em dashes, removes a
// single space hugging either side of an em dash, and collapses runs of two
// or more ASCII spaces to one.
func NormalizePunctuation(s string) string {
	s = strings.ReplaceAll(s, "---", string(emDash))
	s = strings.ReplaceAll(s, "--", string(emDash))

	// Collapse space runs before stripping dash-adjacent spaces so that
	// "a  —  b" ends up fully joined.
	s = collapseSpaces(s)

	s = strings.ReplaceAll(s, " —", "—")
	s = strings.ReplaceAll(s, "— ", "—")
	return s
}

// collapseSpaces reduces runs of two or more ASCII spaces to a single space.
func collapseSpaces(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	spacePending := false
	for _, r := range s {
		if r == ' ' {
			spacePending = true
			continue
		}
		if spacePending {
			b.WriteByte(' ')
			spacePending = false
		}
		b.WriteRune(r)
	}
	if spacePending {
		b.WriteByte(' ')
	}
	return b.String()
}

// Typography applies the full rewriting pass used on every prose text node:
// smart quotes, then dash and space normalization.
func Typography(s string) string {
	return NormalizePunctuation(SmartQuotes(s))
}
