package smarttext

import "strings"

// StripHTML converts a prose HTML fragment to plain text for word counting
// and markdown export. Tags are dropped; closing paragraph tags and line
// breaks become blank lines; lines are trimmed and runs of blank lines
// collapse to a single paragraph separator. The pass is idempotent.
func StripHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '<' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i:], '>')
		if end < 0 {
			// Unterminated tag: keep the remainder as text.
			b.WriteString(s[i:])
			break
		}
		tag := strings.ToLower(strings.Join(strings.Fields(s[i+1:i+end]), ""))
		if tag == "/p" || tag == "br" || tag == "br/" {
			b.WriteString("\n\n")
		}
		i += end + 1
	}

	return joinParagraphs(b.String())
}

// joinParagraphs trims every line and rejoins non-empty line groups with a
// single blank line between them.
func joinParagraphs(s string) string {
	lines := strings.Split(s, "\n")

	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = nil
		}
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}
