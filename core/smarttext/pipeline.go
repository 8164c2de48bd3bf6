package smarttext

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParagraphType classifies a formatted paragraph.
type ParagraphType int

const (
	// Normal is regular body prose.
	Normal ParagraphType = iota
	// Blockquote is prose nested inside one or more blockquote blocks.
	Blockquote
)

// FormattedRun is a span of text with uniform inline formatting.
type FormattedRun struct {
	Text   string
	Bold   bool
	Italic bool
}

// FormattedParagraph is one paragraph of the formatted prose stream.
type FormattedParagraph struct {
	Type ParagraphType
	Runs []FormattedRun
}

// proseParser carries the tag-nesting state of one ParseProse call.
//
// Bold and italic are independent depth counters; a run is bold iff the bold
// depth is positive at emit time. Blockquote depth works the same way for
// paragraph type. Unbalanced close tags are absorbed by refusing to go
// negative, and an unclosed tag simply leaves its counter non-zero to EOF.
type proseParser struct {
	boldDepth   int
	italicDepth int
	quoteDepth  int
	runs        []FormattedRun
	paragraphs  []FormattedParagraph
}

// ParseProse converts a prose HTML fragment into an ordered paragraph
// stream. The recognized marks are strong/b, em/i, p, blockquote, and br;
// entities are resolved by the tokenizer. Typographic rewriting is applied
// to every text node before run emission.
//
// ParseProse never fails: if tokenization aborts, the whole input degrades
// to a single plain-text paragraph.
func ParseProse(src string) []FormattedParagraph {
	p := &proseParser{}
	z := html.NewTokenizer(strings.NewReader(src))

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				p.flush()
				return p.paragraphs
			}
			return fallbackPlain(src)

		case html.TextToken:
			p.appendText(Typography(string(z.Text())))

		case html.StartTagToken:
			name, _ := z.TagName()
			p.openTag(string(name))

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				p.lineBreak()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			p.closeTag(string(name))
		}
	}
}

func (p *proseParser) openTag(name string) {
	switch name {
	case "strong", "b":
		p.boldDepth++
	case "em", "i":
		p.italicDepth++
	case "p":
		p.flush()
	case "blockquote":
		p.flush()
		p.quoteDepth++
	case "br":
		p.lineBreak()
	}
}

func (p *proseParser) closeTag(name string) {
	switch name {
	case "strong", "b":
		if p.boldDepth > 0 {
			p.boldDepth--
		}
	case "em", "i":
		if p.italicDepth > 0 {
			p.italicDepth--
		}
	case "p":
		p.flush()
	case "blockquote":
		p.flush()
		if p.quoteDepth > 0 {
			p.quoteDepth--
		}
	}
}

// lineBreak appends a single space to the last run so words on either side
// of a <br> do not join.
func (p *proseParser) lineBreak() {
	if n := len(p.runs); n > 0 {
		p.runs[n-1].Text += " "
	}
}

// appendText adds text under the current formatting state, coalescing with
// the previous run when the formatting matches.
func (p *proseParser) appendText(text string) {
	if text == "" {
		return
	}
	bold := p.boldDepth > 0
	italic := p.italicDepth > 0
	if n := len(p.runs); n > 0 && p.runs[n-1].Bold == bold && p.runs[n-1].Italic == italic {
		p.runs[n-1].Text += text
		return
	}
	p.runs = append(p.runs, FormattedRun{Text: text, Bold: bold, Italic: italic})
}

// flush emits any pending runs as a paragraph. Paragraphs with no
// non-whitespace text are dropped.
func (p *proseParser) flush() {
	runs := p.runs
	p.runs = nil

	hasText := false
	for _, r := range runs {
		if strings.TrimSpace(r.Text) != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return
	}

	ptype := Normal
	if p.quoteDepth > 0 {
		ptype = Blockquote
	}
	p.paragraphs = append(p.paragraphs, FormattedParagraph{Type: ptype, Runs: runs})
}

// fallbackPlain is the degraded path for unparseable input: strip tags,
// rewrite typography, and return one plain paragraph.
func fallbackPlain(src string) []FormattedParagraph {
	text := Typography(StripHTML(src))
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []FormattedParagraph{{
		Type: Normal,
		Runs: []FormattedRun{{Text: text}},
	}}
}
