package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"docustream/pkg/filename"
	"docustream/pkg/queue"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Router executes merge plans.
type Router struct {
	converter  Converter
	pdf        PDFMerger
	docx       DocxComposer
	scratchDir string
	logger     *zap.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithConverter sets the converter used by the heavy PDF lane.
func WithConverter(c Converter) RouterOption {
	return func(r *Router) { r.converter = c }
}

// WithPDFMerger replaces the pdfcpu merger.
func WithPDFMerger(m PDFMerger) RouterOption {
	return func(r *Router) { r.pdf = m }
}

// WithDocxComposer replaces the zip composer.
func WithDocxComposer(c DocxComposer) RouterOption {
	return func(r *Router) { r.docx = c }
}

// WithScratchDir sets the parent of per-merge scratch directories.
func WithScratchDir(dir string) RouterOption {
	return func(r *Router) { r.scratchDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter returns a Router using pdfcpu, the zip composer, and soffice
// from PATH unless overridden.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		converter: SOffice{},
		pdf:       PDFCPU{},
		docx:      ZipComposer{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Merge merges req with a default Router.
func Merge(ctx context.Context, req Request) (*Result, error) {
	return NewRouter().Merge(ctx, req)
}

// Merge classifies req and runs the chosen lane.
func (r *Router) Merge(ctx context.Context, req Request) (*Result, error) {
	plan, err := Classify(req)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Merging files",
		zap.String("lane", plan.Lane()),
		zap.Int("files", len(req.Files)),
		zap.String("output", string(req.Output)))

	var payload []byte
	switch p := plan.(type) {
	case TextPlan:
		payload = []byte(MergeText(p.Files, p.Options))
	case PDFFastPlan:
		payload, err = r.mergePDF(pdfReaders(p.Files))
	case PDFHeavyPlan:
		payload, err = r.mergeHeavy(ctx, p)
	case DocxPlan:
		payload, err = r.mergeDocx(p)
	default:
		return nil, fmt.Errorf("%w: lane %s", ErrUnsupportedFormat, plan.Lane())
	}
	if err != nil {
		r.logger.Error("Merge failed", zap.String("lane", plan.Lane()), zap.Error(err))
		return nil, err
	}

	return &Result{Payload: payload, Kind: req.Output, MIME: req.Output.MIME()}, nil
}

func pdfReaders(files []queue.File) []io.ReadSeeker {
	out := make([]io.ReadSeeker, len(files))
	for i, f := range files {
		out[i] = bytes.NewReader(f.Content)
	}
	return out
}

func (r *Router) mergePDF(inputs []io.ReadSeeker) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.pdf.Merge(&buf, inputs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Router) mergeDocx(p DocxPlan) ([]byte, error) {
	subs := make([][]byte, len(p.Subs))
	for i, f := range p.Subs {
		subs[i] = f.Content
	}
	var buf bytes.Buffer
	if err := r.docx.Compose(&buf, p.Base.Content, subs); err != nil {
		return nil, fmt.Errorf("docx merge: %w", err)
	}
	return buf.Bytes(), nil
}

// mergeHeavy converts non-PDF inputs inside a fresh scratch directory that
// is removed before returning.
func (r *Router) mergeHeavy(ctx context.Context, p PDFHeavyPlan) (out []byte, err error) {
	if r.converter == nil {
		return nil, fmt.Errorf("%w: no converter configured", ErrConversionUnavailable)
	}
	if a, ok := r.converter.(availability); ok && !a.Available() {
		r.logger.Warn("Document converter not found; mixed PDF merge needs it",
			zap.Int("toConvert", len(p.Convert)))
		return nil, fmt.Errorf("%w: converter binary not found", ErrConversionUnavailable)
	}

	dir, err := os.MkdirTemp(r.scratchDir, "docustream-merge-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			err = multierr.Append(err, fmt.Errorf("remove scratch dir %s: %w", dir, rmErr))
		}
		if err != nil {
			out = nil
		}
	}()

	convert := make(map[int]bool, len(p.Convert))
	for _, i := range p.Convert {
		convert[i] = true
	}

	inputs := make([]io.ReadSeeker, len(p.Files))
	for i, f := range p.Files {
		if !convert[i] {
			inputs[i] = bytes.NewReader(f.Content)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := filepath.Join(dir, scratchName(i, f.Name))
		if err := os.WriteFile(src, f.Content, 0o600); err != nil {
			return nil, &ConversionError{File: f.Name, Err: err}
		}
		pdfPath, err := r.converter.ToPDF(ctx, src, dir)
		if err != nil {
			return nil, &ConversionError{File: f.Name, Err: err}
		}
		data, err := os.ReadFile(pdfPath)
		if err != nil {
			return nil, &ConversionError{File: f.Name, Err: err}
		}
		r.logger.Debug("Converted file", zap.String("file", f.Name), zap.Int("bytes", len(data)))
		inputs[i] = bytes.NewReader(data)
	}

	return r.mergePDF(inputs)
}

// scratchName gives each input a unique, filesystem-safe name so that the
// converter's "{stem}.pdf" outputs cannot collide.
func scratchName(i int, name string) string {
	return fmt.Sprintf("%03d_%s", i, filename.Sanitize(path.Base(name)))
}
