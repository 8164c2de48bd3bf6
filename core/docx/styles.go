package docx

import (
	"fmt"
	"strings"

	"github.com/smith-and-web/kindling-sub000/core/encoding"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
`

// headerRelID is the relationship id of the running header part.
const headerRelID = "rId3"

const rootRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const settingsXML = xmlHeader + `<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:zoom w:percent="100"/>
</w:settings>`

func (d *Document) contentTypesXML() string {
	var overrides strings.Builder
	overrides.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` + "\n")
	overrides.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` + "\n")
	overrides.WriteString(`<Override PartName="/word/settings.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"/>` + "\n")
	if d.HeaderText != "" {
		overrides.WriteString(`<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>` + "\n")
	}

	return xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
` + overrides.String() + `</Types>`
}

func (d *Document) documentRelsXML() string {
	var rels strings.Builder
	rels.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` + "\n")
	rels.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings" Target="settings.xml"/>` + "\n")
	if d.HeaderText != "" {
		rels.WriteString(fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>`, headerRelID) + "\n")
	}

	return xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
` + rels.String() + `</Relationships>`
}

// stylesXML declares the manuscript style set: a Normal base carrying the
// document font and size, three headings, Synopsis, and BodyText.
func (d *Document) stylesXML() string {
	font := encoding.EscapeXMLAttr(d.FontFamily)
	size := d.FontSize
	line := d.LineSpacing

	return xmlHeader + fmt.Sprintf(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults>
<w:rPrDefault><w:rPr><w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s"/><w:sz w:val="%[2]d"/><w:szCs w:val="%[2]d"/></w:rPr></w:rPrDefault>
<w:pPrDefault><w:pPr/></w:pPrDefault>
</w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal">
<w:name w:val="Normal"/>
<w:rPr><w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s"/><w:sz w:val="%[2]d"/><w:szCs w:val="%[2]d"/></w:rPr>
</w:style>
<w:style w:type="paragraph" w:styleId="Heading1">
<w:name w:val="heading 1"/>
<w:basedOn w:val="Normal"/>
<w:pPr><w:jc w:val="center"/><w:spacing w:line="%[3]d" w:lineRule="auto"/></w:pPr>
<w:rPr><w:b/><w:sz w:val="%[2]d"/><w:szCs w:val="%[2]d"/></w:rPr>
</w:style>
<w:style w:type="paragraph" w:styleId="Heading2">
<w:name w:val="heading 2"/>
<w:basedOn w:val="Normal"/>
<w:pPr><w:spacing w:line="%[3]d" w:lineRule="auto"/></w:pPr>
<w:rPr><w:b/><w:sz w:val="%[2]d"/><w:szCs w:val="%[2]d"/></w:rPr>
</w:style>
<w:style w:type="paragraph" w:styleId="Heading3">
<w:name w:val="heading 3"/>
<w:basedOn w:val="Normal"/>
<w:pPr><w:spacing w:line="%[3]d" w:lineRule="auto"/></w:pPr>
<w:rPr><w:b/><w:i/><w:sz w:val="%[2]d"/><w:szCs w:val="%[2]d"/></w:rPr>
</w:style>
<w:style w:type="paragraph" w:styleId="Synopsis">
<w:name w:val="Synopsis"/>
<w:basedOn w:val="Normal"/>
<w:pPr><w:ind w:left="720"/><w:spacing w:line="%[3]d" w:lineRule="auto"/></w:pPr>
<w:rPr><w:i/></w:rPr>
</w:style>
<w:style w:type="paragraph" w:styleId="BodyText">
<w:name w:val="Body Text"/>
<w:basedOn w:val="Normal"/>
<w:pPr><w:spacing w:line="%[3]d" w:lineRule="auto"/></w:pPr>
</w:style>
</w:styles>`, font, size, line)
}
