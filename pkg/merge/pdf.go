package merge

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME.
	api.DisableConfigDir()
}

// PDFMerger concatenates PDF documents page by page, in order.
type PDFMerger interface {
	Merge(w io.Writer, inputs []io.ReadSeeker) error
}

// PDFCPU merges with pdfcpu in relaxed validation mode.
type PDFCPU struct{}

func (PDFCPU) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merge writes the concatenation of inputs to w.
func (p PDFCPU) Merge(w io.Writer, inputs []io.ReadSeeker) error {
	if len(inputs) == 0 {
		return ErrEmptyInput
	}
	if err := api.MergeRaw(inputs, w, false, p.config()); err != nil {
		return fmt.Errorf("pdf merge: %w", err)
	}
	return nil
}

// PageCount returns the number of pages of a PDF.
func (p PDFCPU) PageCount(pdf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdf), p.config())
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// PageCount returns the number of pages of a PDF using pdfcpu.
func PageCount(pdf []byte) (int, error) {
	if len(pdf) == 0 {
		return 0, errors.New("count pages: empty document")
	}
	return PDFCPU{}.PageCount(pdf)
}
