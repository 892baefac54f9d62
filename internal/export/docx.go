// Package export converts final resume markdown into a downloadable DOCX.
// The OOXML package is assembled directly (zip of XML parts): Times New
// Roman 10pt body, bold headings, proper list bullets, and bold project
// names from **Name** markers.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

// Filename is the download name for an exported resume.
const Filename = "tailored_resume.docx"

// Document is the exported artifact as carried in API responses.
type Document struct {
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
}

var headingSet = map[string]struct{}{
	"Summary":                 {},
	"Education":               {},
	"Technical Skills":        {},
	"Professional Experience": {},
	"Projects":                {},
	"Certifications":          {},
}

// FromMarkdown renders resume markdown to a base64-encoded DOCX.
func FromMarkdown(markdown string) (Document, error) {
	raw, err := Bytes(markdown)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Base64:   base64.StdEncoding.EncodeToString(raw),
		Filename: Filename,
	}, nil
}

// Bytes renders resume markdown to raw DOCX bytes.
func Bytes(markdown string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/numbering.xml", numberingXML},
		{"word/document.xml", documentXML(markdown)},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func textRun(text string, bold bool) string {
	var props string
	if bold {
		props = "<w:rPr><w:b/></w:rPr>"
	}
	return fmt.Sprintf(`<w:r>%s<w:t xml:space="preserve">%s</w:t></w:r>`, props, escapeXML(text))
}

func headingParagraph(text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr>` + textRun(text, false) + `</w:p>`
}

// bulletParagraph renders one list item. A leading **Name** marker becomes a
// bold run followed by " - rest".
func bulletParagraph(content string) string {
	props := `<w:pPr><w:pStyle w:val="ListBullet"/><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>`

	if strings.HasPrefix(content, "**") {
		if closing := strings.Index(content[2:], "**"); closing >= 0 {
			name := content[2 : 2+closing]
			rest := strings.TrimSpace(content[2+closing+2:])
			runs := textRun(name, true)
			if rest != "" {
				runs += textRun(" - "+rest, false)
			}
			return "<w:p>" + props + runs + "</w:p>"
		}
	}
	return "<w:p>" + props + textRun(content, false) + "</w:p>"
}

func documentXML(markdown string) string {
	var body strings.Builder
	for _, line := range strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n") {
		stripped := strings.TrimSpace(line)
		switch {
		case stripped == "":
			body.WriteString("<w:p/>")
		case isHeadingLine(stripped):
			body.WriteString(headingParagraph(strings.TrimRight(stripped, ":")))
		case strings.HasPrefix(stripped, "- "):
			body.WriteString(bulletParagraph(stripped[2:]))
		default:
			body.WriteString("<w:p>" + textRun(stripped, false) + "</w:p>")
		}
	}

	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`
}

func isHeadingLine(stripped string) bool {
	if strings.HasSuffix(stripped, ":") {
		return true
	}
	_, ok := headingSet[stripped]
	return ok
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
<Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>
</Relationships>`

// Font sizes are half-points: 20 = 10pt.
const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr>
<w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/>
<w:sz w:val="20"/>
</w:rPr></w:rPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Heading2">
<w:name w:val="heading 2"/>
<w:basedOn w:val="Normal"/>
<w:rPr><w:b/><w:rFonts w:ascii="Times New Roman" w:hAnsi="Times New Roman"/><w:sz w:val="20"/></w:rPr>
</w:style>
<w:style w:type="paragraph" w:styleId="ListBullet">
<w:name w:val="List Bullet"/>
<w:basedOn w:val="Normal"/>
<w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>
</w:style>
</w:styles>`

const numberingXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:abstractNum w:abstractNumId="0">
<w:lvl w:ilvl="0">
<w:numFmt w:val="bullet"/>
<w:lvlText w:val="&#8226;"/>
<w:lvlJc w:val="left"/>
<w:pPr><w:ind w:left="360" w:hanging="180"/></w:pPr>
</w:lvl>
</w:abstractNum>
<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>
</w:numbering>`
