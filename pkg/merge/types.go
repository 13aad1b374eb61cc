// Package merge consolidates queued files into one text, PDF or DOCX
// artifact.
package merge

import (
	"fmt"
	"strings"

	"docustream/pkg/queue"
)

// OutputKind is the artifact format of a merge.
type OutputKind string

const (
	KindText OutputKind = "text"
	KindPDF  OutputKind = "pdf"
	KindDOCX OutputKind = "docx"
)

const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ParseOutputKind accepts txt, text, pdf and docx in any case.
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return KindText, nil
	case "pdf":
		return KindPDF, nil
	case "docx":
		return KindDOCX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Valid reports whether k is one of the known kinds.
func (k OutputKind) Valid() bool {
	return k == KindText || k == KindPDF || k == KindDOCX
}

// MIME returns the media type of artifacts of kind k.
func (k OutputKind) MIME() string {
	switch k {
	case KindPDF:
		return MIMEPDF
	case KindDOCX:
		return MIMEDOCX
	}
	return MIMEText
}

// Ext returns the file extension, without dot, for kind k.
func (k OutputKind) Ext() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindDOCX:
		return "docx"
	}
	return "txt"
}

// SuggestedFilename returns "{base}.{ext}".
func SuggestedFilename(base string, kind OutputKind) string {
	return base + "." + kind.Ext()
}

// Request describes one merge.
type Request struct {
	Files         []queue.File
	Output        OutputKind
	Sanitize      bool // Redact secret-shaped tokens (text only).
	StripComments bool // Remove trailing comments (text only).
}

// Result is the merged artifact.
type Result struct {
	Payload []byte
	Kind    OutputKind
	MIME    string
}

// Text returns the payload as a string.
func (r *Result) Text() string { return string(r.Payload) }
