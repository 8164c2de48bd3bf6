package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

func buildAndRead(t *testing.T, d *Document) map[string]string {
	t.Helper()
	data, err := d.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}
	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", f.Name, err)
		}
		parts[f.Name] = string(content)
	}
	return parts
}

func TestBuildMinimalDocument(t *testing.T) {
	d := New("Courier New", 480)
	d.AddParagraph(Paragraph{Runs: []Run{{Text: "Hello, manuscript."}}})

	parts := buildAndRead(t, d)

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/_rels/document.xml.rels",
		"word/document.xml",
		"word/styles.xml",
		"word/settings.xml",
	} {
		if _, ok := parts[name]; !ok {
			t.Errorf("missing part %s", name)
		}
	}
	if _, ok := parts["word/header1.xml"]; ok {
		t.Error("no header part expected without header text")
	}
	if !strings.Contains(parts["word/document.xml"], "Hello, manuscript.") {
		t.Error("document body missing paragraph text")
	}
}

func TestBuildHeaderWithPageField(t *testing.T) {
	d := New("Times New Roman", 240)
	d.HeaderText = "doe / WINTER NOVEL / "
	d.DifferentFirstPage = true
	d.AddParagraph(Paragraph{Runs: []Run{{Text: "body"}}})

	parts := buildAndRead(t, d)

	header, ok := parts["word/header1.xml"]
	if !ok {
		t.Fatal("missing header part")
	}
	if !strings.Contains(header, "doe / WINTER NOVEL / ") {
		t.Error("header missing running header text")
	}
	for _, marker := range []string{
		`w:fldCharType="begin"`,
		`>PAGE<`,
		`w:fldCharType="separate"`,
		`<w:t>1</w:t>`,
		`w:fldCharType="end"`,
	} {
		if !strings.Contains(header, marker) {
			t.Errorf("header missing field marker %s", marker)
		}
	}

	doc := parts["word/document.xml"]
	if !strings.Contains(doc, "<w:titlePg/>") {
		t.Error("different-first-page flag should emit w:titlePg")
	}
	if !strings.Contains(doc, `<w:headerReference w:type="default" r:id="rId3"/>`) {
		t.Error("section should reference the header part")
	}
	if !strings.Contains(parts["word/_rels/document.xml.rels"], `Target="header1.xml"`) {
		t.Error("document rels should include the header")
	}
	if !strings.Contains(parts["[Content_Types].xml"], "/word/header1.xml") {
		t.Error("content types should declare the header")
	}
}

func TestParagraphProperties(t *testing.T) {
	d := New("Courier New", 480)
	d.AddParagraph(Paragraph{
		Style:           "BodyText",
		PageBreakBefore: true,
		Alignment:       AlignCenter,
		SpacingLine:     480,
		Runs:            []Run{{Text: "CHAPTER ONE", Bold: true, Size: 24}},
	})
	d.AddParagraph(Paragraph{
		LeftIndent:  720,
		RightIndent: 720,
		Runs:        []Run{{Text: "quoted", Italic: true}},
	})
	d.AddParagraph(Paragraph{
		FirstLineIndent: 720,
		SpacingLine:     480,
		Runs:            []Run{{Text: "indented prose"}},
	})

	doc := buildAndRead(t, d)["word/document.xml"]

	for _, marker := range []string{
		`<w:pStyle w:val="BodyText"/>`,
		`<w:pageBreakBefore/>`,
		`<w:jc w:val="center"/>`,
		`w:line="480" w:lineRule="auto"`,
		`<w:ind w:left="720" w:right="720"/>`,
		`<w:ind w:firstLine="720"/>`,
		`<w:b/>`,
		`<w:i/>`,
		`<w:sz w:val="24"/>`,
	} {
		if !strings.Contains(doc, marker) {
			t.Errorf("document missing %s", marker)
		}
	}
}

func TestExplicitZeroIndent(t *testing.T) {
	d := New("Courier New", 480)
	d.AddParagraph(Paragraph{ExplicitIndent: true, Runs: []Run{{Text: "flush left"}}})

	doc := buildAndRead(t, d)["word/document.xml"]
	if !strings.Contains(doc, `<w:ind w:firstLine="0"/>`) {
		t.Error("explicit zero first-line indent should be emitted")
	}
}

func TestTextEscaping(t *testing.T) {
	d := New("Courier New", 480)
	d.AddParagraph(Paragraph{Runs: []Run{{Text: `fish & chips <"fancy">`}}})

	doc := buildAndRead(t, d)["word/document.xml"]
	if !strings.Contains(doc, "fish &amp; chips &lt;") {
		t.Error("run text should be XML-escaped")
	}
	if strings.Contains(doc, `chips <"`) {
		t.Error("raw markup characters leaked into document part")
	}
}

func TestSectionGeometry(t *testing.T) {
	d := New("Courier New", 480)
	d.AddParagraph(Paragraph{Runs: []Run{{Text: "x"}}})

	doc := buildAndRead(t, d)["word/document.xml"]
	if !strings.Contains(doc, `<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>`) {
		t.Error("section margins should be one inch with 720-twip header/footer")
	}
}

func TestStylesDeclared(t *testing.T) {
	d := New("Times New Roman", 360)
	d.AddParagraph(Paragraph{Runs: []Run{{Text: "x"}}})

	styles := buildAndRead(t, d)["word/styles.xml"]
	for _, id := range []string{"Heading1", "Heading2", "Heading3", "Synopsis", "BodyText"} {
		if !strings.Contains(styles, `w:styleId="`+id+`"`) {
			t.Errorf("styles.xml missing style %s", id)
		}
	}
	if !strings.Contains(styles, `w:ascii="Times New Roman"`) {
		t.Error("styles.xml should carry the chosen font")
	}
	if !strings.Contains(styles, `w:line="360"`) {
		t.Error("styles.xml should carry the chosen line spacing")
	}
}
