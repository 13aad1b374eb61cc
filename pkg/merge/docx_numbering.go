package merge

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
)

const (
	numberingPart        = "word/numbering.xml"
	relTypeNumbering     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	numberingContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
)

var (
	abstractNumElement = regexp.MustCompile(`(?s)<w:abstractNum\b[^>]*>.*?</w:abstractNum>`)
	numElement         = regexp.MustCompile(`(?s)<w:num\b[^>]*?(?:/>|>.*?</w:num>)`)
	picBulletElement   = regexp.MustCompile(`(?s)<w:numPicBullet\b.*?</w:numPicBullet>`)
	abstractNumIDAttr  = regexp.MustCompile(`w:abstractNumId="(\d+)"`)
	numIDAttr          = regexp.MustCompile(`w:numId="(\d+)"`)
	abstractNumIDRef   = regexp.MustCompile(`(<w:abstractNumId\b[^>]*w:val=")(\d+)(")`)
	numIDRef           = regexp.MustCompile(`(<w:numId\b[^>]*w:val=")(\d+)(")`)
	nsidElement        = regexp.MustCompile(`<w:(?:nsid|lvlPicBulletId)\b[^>]*/>`)
)

// numbering collects list definitions of appended documents under fresh
// ids so that their paragraphs keep their own lists.
type numbering struct {
	doc         []byte
	created     bool
	maxAbstract int
	maxNum      int
	abstracts   bytes.Buffer
	nums        bytes.Buffer
}

func newNumbering(base []byte) *numbering {
	n := &numbering{doc: base, maxAbstract: -1}
	for _, m := range abstractNumIDAttr.FindAllSubmatch(base, -1) {
		if v, _ := strconv.Atoi(string(m[1])); v > n.maxAbstract {
			n.maxAbstract = v
		}
	}
	for _, m := range numIDAttr.FindAllSubmatch(base, -1) {
		if v, _ := strconv.Atoi(string(m[1])); v > n.maxNum {
			n.maxNum = v
		}
	}
	return n
}

// importFrom renumbers the definitions of sub and rewrites the list
// references of body and styles to match.
func (n *numbering) importFrom(sub []byte, body string, styles []byte) (string, []byte) {
	if sub == nil {
		return body, styles
	}
	if n.doc == nil {
		n.doc = picBulletElement.ReplaceAll(numElement.ReplaceAll(abstractNumElement.ReplaceAll(sub, nil), nil), nil)
		n.created = true
	}

	abstracts := make(map[string]string)
	for _, el := range abstractNumElement.FindAll(sub, -1) {
		m := abstractNumIDAttr.FindSubmatch(el)
		if m == nil {
			continue
		}
		n.maxAbstract++
		id := strconv.Itoa(n.maxAbstract)
		abstracts[string(m[1])] = id
		el = abstractNumIDAttr.ReplaceAll(el, []byte(fmt.Sprintf(`w:abstractNumId="%s"`, id)))
		n.abstracts.Write(nsidElement.ReplaceAll(el, nil))
	}

	nums := make(map[string]string)
	for _, el := range numElement.FindAll(sub, -1) {
		m := numIDAttr.FindSubmatch(el)
		ref := abstractNumIDRef.FindSubmatch(el)
		if m == nil || ref == nil || abstracts[string(ref[2])] == "" {
			continue
		}
		n.maxNum++
		id := strconv.Itoa(n.maxNum)
		nums[string(m[1])] = id
		el = numIDAttr.ReplaceAll(el, []byte(fmt.Sprintf(`w:numId="%s"`, id)))
		el = abstractNumIDRef.ReplaceAllFunc(el, func(r []byte) []byte {
			sm := abstractNumIDRef.FindSubmatch(r)
			return []byte(string(sm[1]) + abstracts[string(sm[2])] + string(sm[3]))
		})
		n.nums.Write(el)
	}

	rewrite := func(s []byte) []byte {
		return numIDRef.ReplaceAllFunc(s, func(r []byte) []byte {
			sm := numIDRef.FindSubmatch(r)
			if id, ok := nums[string(sm[2])]; ok {
				return []byte(string(sm[1]) + id + string(sm[3]))
			}
			return r
		})
	}
	if styles != nil {
		styles = rewrite(styles)
	}
	return string(rewrite([]byte(body))), styles
}

// render returns the merged numbering part, or nil when nothing changed.
// Abstract definitions go before the first w:num element, as the schema
// orders them.
func (n *numbering) render() ([]byte, bool) {
	if n.doc == nil || (n.abstracts.Len() == 0 && n.nums.Len() == 0) {
		return nil, false
	}
	doc := string(n.doc)
	if loc := numElement.FindStringIndex(doc); loc != nil {
		doc = doc[:loc[0]] + n.abstracts.String() + doc[loc[0]:]
	} else {
		doc = insertBeforeClose(doc, "w:numbering", n.abstracts.String())
	}
	doc = insertBeforeClose(doc, "w:numbering", n.nums.String())
	return []byte(doc), n.created
}
