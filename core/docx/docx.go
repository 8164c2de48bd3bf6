// Package docx provides pure Go creation of Office Open XML word documents.
// It covers the subset of WordprocessingML the manuscript exporter needs:
// styled paragraphs and runs, section geometry, a different-first-page
// running header with an embedded PAGE field, and zip packaging.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/smith-and-web/kindling-sub000/core/encoding"
)

// Alignment values for Paragraph.Alignment.
const (
	AlignLeft   = ""
	AlignCenter = "center"
	AlignRight  = "right"
)

// Run is a span of text with uniform character formatting.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	// Size is the font size in half-points; zero inherits the style.
	Size int
	// Font overrides the document font when non-empty.
	Font string
}

// Paragraph is a single block-level element. All measurements are twips.
type Paragraph struct {
	// Style names a paragraph style declared in styles.xml.
	Style           string
	Alignment       string
	PageBreakBefore bool
	// SpacingLine is the line height with lineRule auto; zero omits it.
	SpacingLine   int
	SpacingBefore int
	SpacingAfter  int
	LeftIndent    int
	RightIndent   int
	// FirstLineIndent sets w:firstLine; it is emitted even when zero if
	// ExplicitIndent is true, so a style default can be overridden off.
	FirstLineIndent int
	ExplicitIndent  bool
	Runs            []Run
}

// Document accumulates paragraphs and packs them into a .docx archive.
type Document struct {
	// FontFamily is the default font for the Normal style.
	FontFamily string
	// FontSize is the default size in half-points.
	FontSize int
	// LineSpacing is the default body line height in twips.
	LineSpacing int
	// HeaderText is the literal prefix of the running header. When set, a
	// right-aligned header with an embedded PAGE field is attached to the
	// section.
	HeaderText string
	// DifferentFirstPage leaves the first page header empty.
	DifferentFirstPage bool

	paragraphs []Paragraph
}

// New creates a document with the given default font and body line spacing.
func New(fontFamily string, lineSpacing int) *Document {
	return &Document{
		FontFamily:  fontFamily,
		FontSize:    24,
		LineSpacing: lineSpacing,
	}
}

// AddParagraph appends a paragraph to the body.
func (d *Document) AddParagraph(p Paragraph) {
	d.paragraphs = append(d.paragraphs, p)
}

// ParagraphCount returns the number of body paragraphs added so far.
func (d *Document) ParagraphCount() int {
	return len(d.paragraphs)
}

// Build packs the document into .docx bytes. The archive is assembled fully
// in memory so a failed build never leaves a partial file behind.
func (d *Document) Build() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", d.contentTypesXML()},
		{"_rels/.rels", rootRelsXML},
		{"word/_rels/document.xml.rels", d.documentRelsXML()},
		{"word/document.xml", d.documentXML()},
		{"word/styles.xml", d.stylesXML()},
		{"word/settings.xml", settingsXML},
	}
	if d.HeaderText != "" {
		parts = append(parts, struct {
			name    string
			content string
		}{"word/header1.xml", d.headerXML()})
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *Document) documentXML() string {
	var body strings.Builder
	for _, p := range d.paragraphs {
		writeParagraph(&body, p)
	}
	writeSectionProperties(&body, d)

	return xmlHeader + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<w:body>
` + body.String() + `</w:body>
</w:document>`
}

func writeParagraph(b *strings.Builder, p Paragraph) {
	b.WriteString("<w:p>")

	var props strings.Builder
	if p.Style != "" {
		fmt.Fprintf(&props, `<w:pStyle w:val="%s"/>`, encoding.EscapeXMLAttr(p.Style))
	}
	if p.PageBreakBefore {
		props.WriteString("<w:pageBreakBefore/>")
	}
	if p.SpacingLine > 0 || p.SpacingBefore > 0 || p.SpacingAfter > 0 {
		props.WriteString("<w:spacing")
		if p.SpacingBefore > 0 {
			fmt.Fprintf(&props, ` w:before="%d"`, p.SpacingBefore)
		}
		if p.SpacingAfter > 0 {
			fmt.Fprintf(&props, ` w:after="%d"`, p.SpacingAfter)
		}
		if p.SpacingLine > 0 {
			fmt.Fprintf(&props, ` w:line="%d" w:lineRule="auto"`, p.SpacingLine)
		}
		props.WriteString("/>")
	}
	if p.LeftIndent > 0 || p.RightIndent > 0 || p.FirstLineIndent > 0 || p.ExplicitIndent {
		props.WriteString("<w:ind")
		if p.LeftIndent > 0 {
			fmt.Fprintf(&props, ` w:left="%d"`, p.LeftIndent)
		}
		if p.RightIndent > 0 {
			fmt.Fprintf(&props, ` w:right="%d"`, p.RightIndent)
		}
		if p.FirstLineIndent > 0 || p.ExplicitIndent {
			fmt.Fprintf(&props, ` w:firstLine="%d"`, p.FirstLineIndent)
		}
		props.WriteString("/>")
	}
	if p.Alignment != "" {
		fmt.Fprintf(&props, `<w:jc w:val="%s"/>`, p.Alignment)
	}
	if props.Len() > 0 {
		b.WriteString("<w:pPr>")
		b.WriteString(props.String())
		b.WriteString("</w:pPr>")
	}

	for _, r := range p.Runs {
		writeRun(b, r)
	}
	b.WriteString("</w:p>\n")
}

func writeRun(b *strings.Builder, r Run) {
	b.WriteString("<w:r>")

	var props strings.Builder
	if r.Font != "" {
		fmt.Fprintf(&props, `<w:rFonts w:ascii="%s" w:hAnsi="%s"/>`,
			encoding.EscapeXMLAttr(r.Font), encoding.EscapeXMLAttr(r.Font))
	}
	if r.Bold {
		props.WriteString("<w:b/>")
	}
	if r.Italic {
		props.WriteString("<w:i/>")
	}
	if r.Size > 0 {
		fmt.Fprintf(&props, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, r.Size, r.Size)
	}
	if props.Len() > 0 {
		b.WriteString("<w:rPr>")
		b.WriteString(props.String())
		b.WriteString("</w:rPr>")
	}

	fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t>`, encoding.EscapeXMLText(r.Text))
	b.WriteString("</w:r>")
}

func writeSectionProperties(b *strings.Builder, d *Document) {
	b.WriteString("<w:sectPr>")
	if d.HeaderText != "" {
		fmt.Fprintf(b, `<w:headerReference w:type="default" r:id="%s"/>`, headerRelID)
	}
	// US Letter with one inch margins and 720-twip header/footer bands.
	b.WriteString(`<w:pgSz w:w="12240" w:h="15840"/>`)
	b.WriteString(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>`)
	if d.DifferentFirstPage {
		b.WriteString("<w:titlePg/>")
	}
	b.WriteString(`<w:cols w:space="720"/>`)
	b.WriteString("</w:sectPr>\n")
}

// headerXML emits the running header part: the literal header text followed
// by a PAGE field rendered as begin / instruction / separate / placeholder /
// end runs.
func (d *Document) headerXML() string {
	var runs strings.Builder
	fmt.Fprintf(&runs, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, encoding.EscapeXMLText(d.HeaderText))
	runs.WriteString(`<w:r><w:fldChar w:fldCharType="begin"/></w:r>`)
	runs.WriteString(`<w:r><w:instrText xml:space="preserve">PAGE</w:instrText></w:r>`)
	runs.WriteString(`<w:r><w:fldChar w:fldCharType="separate"/></w:r>`)
	runs.WriteString(`<w:r><w:t>1</w:t></w:r>`)
	runs.WriteString(`<w:r><w:fldChar w:fldCharType="end"/></w:r>`)

	return xmlHeader + `<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:p><w:pPr><w:jc w:val="right"/></w:pPr>` + runs.String() + `</w:p>
</w:hdr>`
}
