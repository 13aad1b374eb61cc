package merge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DocxComposer appends sub-documents to a base WordprocessingML document.
type DocxComposer interface {
	Compose(w io.Writer, base []byte, subs [][]byte) error
}

const (
	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
	pageBreak    = `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`
)

var (
	styleElement = regexp.MustCompile(`(?s)<w:style\b[^>]*?(?:/>|>.*?</w:style>)`)
	styleID      = regexp.MustCompile(`w:styleId="([^"]*)"`)
)

// ZipComposer splices document bodies inside the OOXML package. The base
// keeps its section properties and headers. Each appended body starts on a
// new page. Style and list definitions missing from the base are copied
// over, and hyperlinks and images keep working through fresh relationship
// ids and copied media parts.
type ZipComposer struct{}

// Compose writes the combined document to w.
func (ZipComposer) Compose(w io.Writer, base []byte, subs [][]byte) error {
	parts, order, err := readParts(base)
	if err != nil {
		return fmt.Errorf("read base document: %w", err)
	}
	doc, ok := parts[documentPart]
	if !ok {
		return fmt.Errorf("base document has no %s", documentPart)
	}
	pkg := newDocxPackage(parts, order)
	styles := parts[stylesPart]
	lists := newNumbering(parts[numberingPart])
	baseDoc := string(doc)

	var appended strings.Builder
	for i, sub := range subs {
		n := i + 2
		subParts, _, err := readParts(sub)
		if err != nil {
			return fmt.Errorf("read document %d: %w", n, err)
		}
		subDoc, ok := subParts[documentPart]
		if !ok {
			return fmt.Errorf("document %d has no %s", n, documentPart)
		}
		body, err := bodyContent(string(subDoc))
		if err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}
		body = pkg.importRelationships(n, subParts, trimFinalSectPr(body))
		body, subStyles := lists.importFrom(subParts[numberingPart], body, subParts[stylesPart])
		baseDoc = mergeNamespaces(baseDoc, string(subDoc))

		appended.WriteString(pageBreak)
		appended.WriteString(body)
		if styles != nil && subStyles != nil {
			styles = mergeStyles(styles, subStyles)
		}
	}

	merged, err := insertBeforeSectPr(baseDoc, appended.String())
	if err != nil {
		return fmt.Errorf("base document: %w", err)
	}
	pkg.parts[documentPart] = []byte(merged)
	if styles != nil {
		pkg.parts[stylesPart] = styles
	}
	if data, created := lists.render(); data != nil {
		if created {
			pkg.addRelationship(relTypeNumbering, "numbering.xml", "")
			pkg.addOverride("/"+numberingPart, numberingContentType)
		}
		pkg.add(numberingPart, data)
	}
	pkg.flush()

	zw := zip.NewWriter(w)
	for _, name := range pkg.order {
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if _, err := fw.Write(pkg.parts[name]); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return zw.Close()
}

var (
	rootElement = regexp.MustCompile(`<w:document\b[^>]*>`)
	nsDecl      = regexp.MustCompile(`\sxmlns:(\w+)="[^"]*"`)
)

// mergeNamespaces adds to the root element of doc the prefix declarations
// of sub's root that doc lacks, so spliced markup stays well formed.
func mergeNamespaces(doc, sub string) string {
	loc := rootElement.FindStringIndex(doc)
	subRoot := rootElement.FindString(sub)
	if loc == nil || subRoot == "" {
		return doc
	}
	have := make(map[string]bool)
	for _, m := range nsDecl.FindAllStringSubmatch(doc[loc[0]:loc[1]], -1) {
		have[m[1]] = true
	}
	var extra strings.Builder
	for _, m := range nsDecl.FindAllStringSubmatch(subRoot, -1) {
		if !have[m[1]] {
			have[m[1]] = true
			extra.WriteString(m[0])
		}
	}
	if extra.Len() == 0 {
		return doc
	}
	at := loc[1] - 1
	return doc[:at] + extra.String() + doc[at:]
}

func readParts(pkg []byte) (map[string][]byte, []string, error) {
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		return nil, nil, err
	}
	parts := make(map[string][]byte, len(zr.File))
	order := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		parts[f.Name] = data
		order = append(order, f.Name)
	}
	return parts, order, nil
}

// bodyBounds returns the offsets just after the <w:body> open tag and of
// the </w:body> close tag.
func bodyBounds(doc string) (int, int, error) {
	open := strings.Index(doc, "<w:body")
	if open < 0 {
		return 0, 0, fmt.Errorf("missing <w:body>")
	}
	gt := strings.Index(doc[open:], ">")
	if gt < 0 {
		return 0, 0, fmt.Errorf("malformed <w:body>")
	}
	start := open + gt + 1
	end := strings.LastIndex(doc, "</w:body>")
	if end < start {
		return 0, 0, fmt.Errorf("missing </w:body>")
	}
	return start, end, nil
}

func bodyContent(doc string) (string, error) {
	start, end, err := bodyBounds(doc)
	if err != nil {
		return "", err
	}
	return doc[start:end], nil
}

// finalSectPr locates the body-level section properties, which follow the
// last paragraph. It returns -1 when there are none.
func finalSectPr(body string) (int, int) {
	i := strings.LastIndex(body, "<w:sectPr")
	if i < 0 || strings.Contains(body[i:], "</w:p>") || strings.Contains(body[i:], "</w:tbl>") {
		return -1, -1
	}
	if j := strings.Index(body[i:], "</w:sectPr>"); j >= 0 {
		return i, i + j + len("</w:sectPr>")
	}
	if j := strings.Index(body[i:], "/>"); j >= 0 {
		return i, i + j + len("/>")
	}
	return -1, -1
}

func trimFinalSectPr(body string) string {
	i, j := finalSectPr(body)
	if i < 0 {
		return body
	}
	return body[:i] + body[j:]
}

func insertBeforeSectPr(doc, content string) (string, error) {
	start, end, err := bodyBounds(doc)
	if err != nil {
		return "", err
	}
	at := end
	if i, _ := finalSectPr(doc[start:end]); i >= 0 {
		at = start + i
	}
	return doc[:at] + content + doc[at:], nil
}

// mergeStyles appends to base every style of sub whose id base lacks.
func mergeStyles(base, sub []byte) []byte {
	have := make(map[string]bool)
	for _, m := range styleElement.FindAll(base, -1) {
		if id := styleID.FindSubmatch(m); id != nil {
			have[string(id[1])] = true
		}
	}

	var extra bytes.Buffer
	for _, m := range styleElement.FindAll(sub, -1) {
		id := styleID.FindSubmatch(m)
		if id == nil || have[string(id[1])] {
			continue
		}
		have[string(id[1])] = true
		extra.Write(m)
	}
	if extra.Len() == 0 {
		return base
	}

	end := bytes.LastIndex(base, []byte("</w:styles>"))
	if end < 0 {
		return base
	}
	out := make([]byte, 0, len(base)+extra.Len())
	out = append(out, base[:end]...)
	out = append(out, extra.Bytes()...)
	return append(out, base[end:]...)
}
