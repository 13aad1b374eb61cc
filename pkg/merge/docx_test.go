package merge

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"docustream/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComposer struct {
	compose func(w io.Writer, base []byte, subs [][]byte) error
}

func (f *fakeComposer) Compose(w io.Writer, base []byte, subs [][]byte) error {
	return f.compose(w, base, subs)
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func style(id string) string {
	return `<w:style w:type="paragraph" w:styleId="` + id + `"><w:name w:val="` + id + `"/></w:style>`
}

func makeDocx(t *testing.T, body, styles string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, data string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types/>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document ` + wordNS + `><w:body>` + body +
			`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr></w:body></w:document>`},
		{"word/styles.xml", `<?xml version="1.0"?><w:styles ` + wordNS + `>` + styles + `</w:styles>`},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readPart(t *testing.T, docx []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("part %s missing", name)
	return ""
}

func TestZipComposerAppendsBodiesAndStyles(t *testing.T) {
	base := makeDocx(t, para("Alpha"), style("Normal"))
	sub1 := makeDocx(t, para("Beta"), style("Normal")+style("Heading1"))
	sub2 := makeDocx(t, para("Gamma")+`<w:tbl><w:tr><w:tc>`+para("Cell")+`</w:tc></w:tr></w:tbl>`, style("Quote"))

	var out bytes.Buffer
	require.NoError(t, ZipComposer{}.Compose(&out, base, [][]byte{sub1, sub2}))

	doc := readPart(t, out.Bytes(), "word/document.xml")
	alpha := strings.Index(doc, "Alpha")
	beta := strings.Index(doc, "Beta")
	gamma := strings.Index(doc, "Gamma")
	sect := strings.Index(doc, "<w:sectPr")
	assert.True(t, alpha < beta && beta < gamma && gamma < sect, doc)
	assert.Contains(t, doc, "Cell")
	assert.Equal(t, 1, strings.Count(doc, "<w:sectPr"))
	assert.Equal(t, 2, strings.Count(doc, pageBreak))
	assert.True(t, strings.HasSuffix(doc, "</w:sectPr></w:body></w:document>"))

	styles := readPart(t, out.Bytes(), "word/styles.xml")
	assert.Equal(t, 1, strings.Count(styles, `w:styleId="Normal"`))
	assert.Equal(t, 1, strings.Count(styles, `w:styleId="Heading1"`))
	assert.Equal(t, 1, strings.Count(styles, `w:styleId="Quote"`))
	assert.True(t, strings.HasSuffix(styles, "</w:styles>"))

	assert.Contains(t, readPart(t, out.Bytes(), "[Content_Types].xml"), "<Types/>")
}

func TestZipComposerRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	err := ZipComposer{}.Compose(&out, []byte("not a zip"), nil)
	assert.Error(t, err)

	base := makeDocx(t, para("Alpha"), "")
	err = ZipComposer{}.Compose(&out, base, [][]byte{[]byte("nope")})
	assert.ErrorContains(t, err, "document 2")
}

func TestRouterDocxLane(t *testing.T) {
	a := queue.NewFile("a.docx", makeDocx(t, para("One"), ""), "test")
	b := queue.NewFile("b.DOCX", makeDocx(t, para("Two"), ""), "test")

	res, err := NewRouter().Merge(context.Background(), Request{Files: []queue.File{a, b}, Output: KindDOCX})
	require.NoError(t, err)
	assert.Equal(t, MIMEDOCX, res.MIME)
	doc := readPart(t, res.Payload, "word/document.xml")
	assert.Less(t, strings.Index(doc, "One"), strings.Index(doc, "Two"))
}

const relNS = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

// makePackage zips parts in sorted name order.
func makePackage(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func documentXML(ns, body string) string {
	return `<?xml version="1.0"?><w:document ` + ns + `><w:body>` + body +
		`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr></w:body></w:document>`
}

func relsXML(rels ...string) string {
	return `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		strings.Join(rels, "") + `</Relationships>`
}

func hasPart(t *testing.T, docx []byte, name string) bool {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

const blip = `<w:r><w:drawing><wp:inline><a:graphic><a:graphicData><pic:pic><pic:blipFill>` +
	`<a:blip r:embed="%s"/></pic:blipFill></pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`

func TestZipComposerCarriesHyperlinksAndImages(t *testing.T) {
	base := makePackage(t, map[string]string{
		"[Content_Types].xml":          `<Types><Default Extension="xml" ContentType="application/xml"/></Types>`,
		"word/document.xml":            documentXML(wordNS+" "+relNS, para("Alpha")+fmt.Sprintf(`<w:p>`+blip+`</w:p>`, "rId1")),
		"word/_rels/document.xml.rels": relsXML(`<Relationship Id="rId1" Type="` + relTypeImage + `" Target="media/image1.png"/>`),
		"word/media/image1.png":        "base-png",
	})
	sub := makePackage(t, map[string]string{
		"[Content_Types].xml": `<Types><Default Extension="png" ContentType="image/png"/></Types>`,
		"word/document.xml": documentXML(wordNS+" "+relNS+` xmlns:wp="urn:wp"`,
			`<w:p><w:hyperlink r:id="rId9" w:history="1"><w:r><w:t>Site</w:t></w:r></w:hyperlink></w:p>`+
				fmt.Sprintf(`<w:p>`+blip+`</w:p>`, "rId10")),
		"word/_rels/document.xml.rels": relsXML(
			`<Relationship Id="rId9" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/?a=1&amp;b=2" TargetMode="External"/>`,
			`<Relationship Id="rId10" Type="`+relTypeImage+`" Target="media/image1.png"/>`,
		),
		"word/media/image1.png": "sub-png",
	})

	var out bytes.Buffer
	require.NoError(t, ZipComposer{}.Compose(&out, base, [][]byte{sub}))

	doc := readPart(t, out.Bytes(), "word/document.xml")
	assert.Contains(t, doc, `<w:hyperlink r:id="rId2" w:history="1">`)
	assert.Contains(t, doc, `r:embed="rId1"`, "base references are untouched")
	assert.Contains(t, doc, `r:embed="rId3"`)
	assert.NotContains(t, doc, "rId9")
	assert.NotContains(t, doc, "rId10")
	assert.Contains(t, doc, `xmlns:wp="urn:wp"`)

	rels := readPart(t, out.Bytes(), "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Id="rId1"`)
	assert.Contains(t, rels, `<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com/?a=1&amp;b=2" TargetMode="External"/>`)
	assert.Contains(t, rels, `<Relationship Id="rId3" Type="`+relTypeImage+`" Target="media/doc2_image1.png"/>`)

	assert.Equal(t, "base-png", readPart(t, out.Bytes(), "word/media/image1.png"))
	assert.Equal(t, "sub-png", readPart(t, out.Bytes(), "word/media/doc2_image1.png"))
	assert.Contains(t, readPart(t, out.Bytes(), "[Content_Types].xml"), `<Default Extension="png" ContentType="image/png"/>`)
}

func TestZipComposerUnwrapsDanglingReferences(t *testing.T) {
	base := makeDocx(t, para("Alpha"), "")
	sub := makePackage(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml": documentXML(wordNS+" "+relNS,
			`<w:p><w:hyperlink r:id="rId5"><w:r><w:t>Gone</w:t></w:r></w:hyperlink></w:p>`+
				fmt.Sprintf(`<w:p>`+blip+`</w:p>`, "rId6")+
				`<w:p><w:pPr><w:sectPr><w:headerReference w:type="default" r:id="rId7"/></w:sectPr></w:pPr>`+
				`<w:r><w:t>Tail</w:t></w:r></w:p>`),
		"word/_rels/document.xml.rels": relsXML(
			`<Relationship Id="rId6" Type="` + relTypeImage + `" Target="media/missing.png"/>`,
			`<Relationship Id="rId7" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>`,
		),
	})

	var out bytes.Buffer
	require.NoError(t, ZipComposer{}.Compose(&out, base, [][]byte{sub}))

	doc := readPart(t, out.Bytes(), "word/document.xml")
	for _, id := range []string{"rId5", "rId6", "rId7"} {
		assert.NotContains(t, doc, id)
	}
	assert.NotContains(t, doc, "<w:drawing>")
	assert.NotContains(t, doc, "headerReference")
	assert.Contains(t, doc, "<w:hyperlink><w:r><w:t>Gone</w:t>")
	assert.Contains(t, doc, "Tail")
	assert.False(t, hasPart(t, out.Bytes(), "word/_rels/document.xml.rels"), "nothing was carried")
}

func numberingXML(abstracts, nums string) string {
	return `<?xml version="1.0"?><w:numbering ` + wordNS + `>` + abstracts + nums + `</w:numbering>`
}

func abstractNum(id string) string {
	return `<w:abstractNum w:abstractNumId="` + id + `"><w:nsid w:val="1A2B3C4D"/><w:lvl w:ilvl="0"><w:numFmt w:val="decimal"/></w:lvl></w:abstractNum>`
}

func num(id, abstract string) string {
	return `<w:num w:numId="` + id + `"><w:abstractNumId w:val="` + abstract + `"/></w:num>`
}

const listPara = `<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="%s"/></w:numPr></w:pPr><w:r><w:t>%s</w:t></w:r></w:p>`

func TestZipComposerRenumbersLists(t *testing.T) {
	base := makePackage(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML(wordNS, fmt.Sprintf(listPara, "1", "first")),
		"word/numbering.xml":  numberingXML(abstractNum("0"), num("1", "0")),
	})
	sub := makePackage(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML(wordNS, fmt.Sprintf(listPara, "1", "second")+fmt.Sprintf(listPara, "0", "plain")),
		"word/numbering.xml":  numberingXML(abstractNum("0"), num("1", "0")),
	})

	var out bytes.Buffer
	require.NoError(t, ZipComposer{}.Compose(&out, base, [][]byte{sub}))

	doc := readPart(t, out.Bytes(), "word/document.xml")
	first := strings.Index(doc, "first")
	second := strings.Index(doc, "second")
	assert.Contains(t, doc[:first], `<w:numId w:val="1"/>`)
	assert.Contains(t, doc[first:second], `<w:numId w:val="2"/>`)
	assert.Contains(t, doc[second:], `<w:numId w:val="0"/>`)

	lists := readPart(t, out.Bytes(), "word/numbering.xml")
	assert.Equal(t, 2, strings.Count(lists, "<w:abstractNum "))
	assert.Contains(t, lists, `w:abstractNumId="1"`)
	assert.Contains(t, lists, `<w:num w:numId="2"><w:abstractNumId w:val="1"/></w:num>`)
	assert.Less(t, strings.LastIndex(lists, "</w:abstractNum>"), strings.Index(lists, "<w:num "))
	assert.Equal(t, 1, strings.Count(lists, "w:nsid"), "imported definitions drop their list id")
}

func TestZipComposerAddsNumberingPart(t *testing.T) {
	base := makeDocx(t, para("Alpha"), "")
	sub := makePackage(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   documentXML(wordNS, fmt.Sprintf(listPara, "3", "item")),
		"word/numbering.xml":  numberingXML(abstractNum("5"), num("3", "5")),
	})

	var out bytes.Buffer
	require.NoError(t, ZipComposer{}.Compose(&out, base, [][]byte{sub}))

	assert.Contains(t, readPart(t, out.Bytes(), "word/document.xml"), `<w:numId w:val="1"/>`)
	lists := readPart(t, out.Bytes(), "word/numbering.xml")
	assert.Contains(t, lists, `<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>`)
	assert.Contains(t, readPart(t, out.Bytes(), "word/_rels/document.xml.rels"), `Target="numbering.xml"`)
	types := readPart(t, out.Bytes(), "[Content_Types].xml")
	assert.Contains(t, types, `<Override PartName="/word/numbering.xml" ContentType="`+numberingContentType+`"/>`)
	assert.Contains(t, types, `<Default Extension="rels"`)
}
