package merge

import (
	"fmt"
	"strings"

	"docustream/pkg/queue"
)

// Plan is the merge strategy chosen for a request. The concrete types are
// TextPlan, PDFFastPlan, PDFHeavyPlan and DocxPlan.
type Plan interface {
	Lane() string
}

// TextPlan concatenates decoded text.
type TextPlan struct {
	Files   []queue.File
	Options TextOptions
}

// PDFFastPlan concatenates inputs that are all PDF already.
type PDFFastPlan struct {
	Files []queue.File
}

// PDFHeavyPlan converts the files at Convert to PDF, then concatenates
// everything in queue order.
type PDFHeavyPlan struct {
	Files   []queue.File
	Convert []int
}

// DocxPlan appends every later document to the first one.
type DocxPlan struct {
	Base queue.File
	Subs []queue.File
}

func (TextPlan) Lane() string     { return "text" }
func (PDFFastPlan) Lane() string  { return "pdf-fast" }
func (PDFHeavyPlan) Lane() string { return "pdf-heavy" }
func (DocxPlan) Lane() string     { return "docx" }

// Classify picks the plan for req without side effects.
func Classify(req Request) (Plan, error) {
	if !req.Output.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Output)
	}
	if len(req.Files) == 0 {
		return nil, ErrEmptyInput
	}

	switch req.Output {
	case KindText:
		return TextPlan{
			Files:   req.Files,
			Options: TextOptions{Sanitize: req.Sanitize, StripComments: req.StripComments},
		}, nil

	case KindDOCX:
		var offending []string
		for _, f := range req.Files {
			if f.Ext() != ".docx" {
				offending = append(offending, f.Name)
			}
		}
		if len(offending) > 0 {
			return nil, fmt.Errorf("%w: docx output needs .docx inputs, got %s",
				ErrIncompatibleInputs, strings.Join(offending, ", "))
		}
		return DocxPlan{Base: req.Files[0], Subs: req.Files[1:]}, nil
	}

	var convert []int
	for i, f := range req.Files {
		if !isPDF(f) {
			convert = append(convert, i)
		}
	}
	if len(convert) == 0 {
		return PDFFastPlan{Files: req.Files}, nil
	}
	return PDFHeavyPlan{Files: req.Files, Convert: convert}, nil
}

func isPDF(f queue.File) bool { return f.Ext() == ".pdf" }
