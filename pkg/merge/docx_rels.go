package merge

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

const (
	relsPart         = "word/_rels/document.xml.rels"
	contentTypesPart = "[Content_Types].xml"

	relsNS          = "http://schemas.openxmlformats.org/package/2006/relationships"
	typesNS         = "http://schemas.openxmlformats.org/package/2006/content-types"
	relsContentType = "application/vnd.openxmlformats-package.relationships+xml"
	relTypeImage    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	xmlHeader       = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

var (
	relElement      = regexp.MustCompile(`<Relationship\b[^>]*>`)
	defaultElement  = regexp.MustCompile(`<Default\b[^>]*>`)
	overrideElement = regexp.MustCompile(`<Override\b[^>]*>`)
	xmlAttr         = regexp.MustCompile(`([\w:]+)="([^"]*)"`)

	// relRef matches a relationship reference attribute with its leading
	// whitespace.
	relRef = regexp.MustCompile(`\s+r:(id|embed|link)="([^"]*)"`)

	// Elements that cannot survive without their relationship target.
	embedElements = []*regexp.Regexp{
		regexp.MustCompile(`(?s)<w:drawing>.*?</w:drawing>`),
		regexp.MustCompile(`(?s)<w:pict>.*?</w:pict>`),
		regexp.MustCompile(`(?s)<w:object\b.*?</w:object>`),
	}
	partReference = regexp.MustCompile(`<w:(?:headerReference|footerReference|altChunk)\b[^>]*/>`)
)

var mediaTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
	"svg":  "image/svg+xml",
}

type relationship struct {
	ID, Type, Target, Mode string
}

func parseRels(data []byte) []relationship {
	var out []relationship
	for _, el := range relElement.FindAllString(string(data), -1) {
		a := attrs(el)
		out = append(out, relationship{ID: a["Id"], Type: a["Type"], Target: a["Target"], Mode: a["TargetMode"]})
	}
	return out
}

func attrs(el string) map[string]string {
	out := make(map[string]string)
	for _, m := range xmlAttr.FindAllStringSubmatch(el, -1) {
		out[m[1]] = m[2]
	}
	return out
}

// docxPackage tracks the additions to a base package while documents are
// appended. Attribute values are copied in their escaped form.
type docxPackage struct {
	parts      map[string][]byte
	order      []string
	relIDs     map[string]bool
	nextID     int
	newRels    []string
	types      string
	typesDirty bool
}

func newDocxPackage(parts map[string][]byte, order []string) *docxPackage {
	p := &docxPackage{parts: parts, order: order, relIDs: make(map[string]bool)}
	for _, r := range parseRels(parts[relsPart]) {
		p.relIDs[r.ID] = true
	}
	p.types = string(parts[contentTypesPart])
	if p.types == "" {
		p.types = xmlHeader + `<Types xmlns="` + typesNS + `"></Types>`
	}
	return p
}

func (p *docxPackage) add(name string, data []byte) {
	if _, ok := p.parts[name]; !ok {
		p.order = append(p.order, name)
	}
	p.parts[name] = data
}

func (p *docxPackage) freshID() string {
	for {
		p.nextID++
		id := fmt.Sprintf("rId%d", p.nextID)
		if !p.relIDs[id] {
			p.relIDs[id] = true
			return id
		}
	}
}

// addRelationship registers a new relationship of the main document part
// and returns its id.
func (p *docxPackage) addRelationship(typ, target, mode string) string {
	id := p.freshID()
	el := fmt.Sprintf(`<Relationship Id="%s" Type="%s" Target="%s"`, id, typ, target)
	if mode != "" {
		el += fmt.Sprintf(` TargetMode="%s"`, mode)
	}
	p.newRels = append(p.newRels, el+"/>")
	return id
}

// importRelationships carries the relationships body references from a
// sub-document: external targets such as hyperlinks, and images together
// with their media parts. Every carried relationship gets a fresh id and
// body references are rewritten. References that cannot be carried are
// unwrapped: drawings and objects lose the element, header and footer
// references are dropped, and other reference attributes are removed.
func (p *docxPackage) importRelationships(doc int, sub map[string][]byte, body string) string {
	subTypes := string(sub[contentTypesPart])
	ids := make(map[string]string)

	for _, rel := range parseRels(sub[relsPart]) {
		if rel.ID == "" || !strings.Contains(body, `"`+rel.ID+`"`) {
			continue
		}
		switch {
		case rel.Mode == "External":
			ids[rel.ID] = p.addRelationship(rel.Type, rel.Target, rel.Mode)
		case rel.Type == relTypeImage:
			src := partName(rel.Target)
			data, ok := sub[src]
			if !ok {
				continue
			}
			target := fmt.Sprintf("media/doc%d_%s", doc, path.Base(src))
			p.add("word/"+target, data)
			p.ensureContentType("/word/"+target, subTypes, "/"+src)
			ids[rel.ID] = p.addRelationship(rel.Type, target, "")
		}
	}
	return rewriteRefs(body, ids)
}

// partName resolves a relationship target of word/document.xml to a zip
// entry name.
func partName(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("word", target)
}

func rewriteRefs(body string, ids map[string]string) string {
	for _, re := range embedElements {
		body = re.ReplaceAllStringFunc(body, func(el string) string {
			for _, ref := range relRef.FindAllStringSubmatch(el, -1) {
				if _, ok := ids[ref[2]]; !ok {
					return ""
				}
			}
			return el
		})
	}
	body = partReference.ReplaceAllString(body, "")
	return relRef.ReplaceAllStringFunc(body, func(attr string) string {
		m := relRef.FindStringSubmatch(attr)
		if id, ok := ids[m[2]]; ok {
			return fmt.Sprintf(` r:%s="%s"`, m[1], id)
		}
		return ""
	})
}

func (p *docxPackage) hasDefault(ext string) bool {
	for _, el := range defaultElement.FindAllString(p.types, -1) {
		if strings.EqualFold(attrs(el)["Extension"], ext) {
			return true
		}
	}
	return false
}

func (p *docxPackage) ensureDefault(ext, contentType string) {
	if p.hasDefault(ext) {
		return
	}
	p.types = insertBeforeClose(p.types, "Types", fmt.Sprintf(`<Default Extension="%s" ContentType="%s"/>`, ext, contentType))
	p.typesDirty = true
}

func (p *docxPackage) addOverride(part, contentType string) {
	for _, el := range overrideElement.FindAllString(p.types, -1) {
		if strings.EqualFold(attrs(el)["PartName"], part) {
			return
		}
	}
	p.types = insertBeforeClose(p.types, "Types", fmt.Sprintf(`<Override PartName="%s" ContentType="%s"/>`, part, contentType))
	p.typesDirty = true
}

// ensureContentType declares the type of a copied part, preferring what
// the source package declared for it.
func (p *docxPackage) ensureContentType(part, subTypes, subPart string) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(part), "."))
	if ext != "" && p.hasDefault(ext) {
		return
	}
	for _, el := range overrideElement.FindAllString(subTypes, -1) {
		if a := attrs(el); strings.EqualFold(a["PartName"], subPart) {
			p.addOverride(part, a["ContentType"])
			return
		}
	}
	for _, el := range defaultElement.FindAllString(subTypes, -1) {
		if a := attrs(el); ext != "" && strings.EqualFold(a["Extension"], ext) {
			p.ensureDefault(ext, a["ContentType"])
			return
		}
	}
	if ct, ok := mediaTypes[ext]; ok {
		p.ensureDefault(ext, ct)
		return
	}
	p.addOverride(part, "application/octet-stream")
}

// flush writes the relationship and content type parts back.
func (p *docxPackage) flush() {
	if len(p.newRels) > 0 {
		rels, ok := p.parts[relsPart]
		if !ok {
			rels = []byte(xmlHeader + `<Relationships xmlns="` + relsNS + `"></Relationships>`)
			p.ensureDefault("rels", relsContentType)
		}
		p.add(relsPart, []byte(insertBeforeClose(string(rels), "Relationships", strings.Join(p.newRels, ""))))
	}
	if p.typesDirty {
		p.add(contentTypesPart, []byte(p.types))
	}
}

// insertBeforeClose inserts content before the closing tag of the last
// element named tag, expanding a self-closed element when needed.
func insertBeforeClose(doc, tag, content string) string {
	closing := "</" + tag + ">"
	if i := strings.LastIndex(doc, closing); i >= 0 {
		return doc[:i] + content + doc[i:]
	}
	selfClosed := regexp.MustCompile(`<` + regexp.QuoteMeta(tag) + `\b([^>]*?)\s*/>`)
	loc := selfClosed.FindStringSubmatchIndex(doc)
	if loc == nil {
		return doc
	}
	open := "<" + tag + doc[loc[2]:loc[3]] + ">"
	return doc[:loc[0]] + open + content + closing + doc[loc[1]:]
}
