package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docustream/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverter struct {
	toPDF func(ctx context.Context, inputPath, outDir string) (string, error)
}

func (f *fakeConverter) ToPDF(ctx context.Context, inputPath, outDir string) (string, error) {
	return f.toPDF(ctx, inputPath, outDir)
}

func stubExec(t *testing.T, look func(string) (string, error), run func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	t.Helper()
	origLook, origRun := lookPath, runCommand
	t.Cleanup(func() { lookPath, runCommand = origLook, origRun })
	if look != nil {
		lookPath = look
	}
	if run != nil {
		runCommand = run
	}
}

func TestSOfficeMissingBinary(t *testing.T) {
	stubExec(t, func(string) (string, error) { return "", errors.New("not found") }, nil)

	_, err := SOffice{Binary: "nosuch"}.ToPDF(context.Background(), "in.docx", t.TempDir())
	assert.ErrorIs(t, err, ErrConversionUnavailable)
	assert.False(t, SOffice{Binary: "nosuch"}.Available())
}

func TestSOfficeToolFailure(t *testing.T) {
	stubExec(t,
		func(name string) (string, error) { return "/usr/bin/" + name, nil },
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("Error: source file could not be loaded\n"), errors.New("exit status 1")
		})

	_, err := SOffice{}.ToPDF(context.Background(), "in.docx", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConversionError)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "soffice", te.Tool)
	assert.Contains(t, te.Stderr, "could not be loaded")
}

func TestSOfficeSuccess(t *testing.T) {
	out := t.TempDir()
	var gotArgs []string
	stubExec(t,
		func(name string) (string, error) { return "/opt/lo/" + name, nil },
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = append([]string{name}, args...)
			return nil, os.WriteFile(filepath.Join(out, "report.pdf"), []byte("%PDF"), 0o600)
		})

	path, err := SOffice{Binary: "lowriter"}.ToPDF(context.Background(), "/tmp/x/report.odt", out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "report.pdf"), path)
	assert.Equal(t, []string{"/opt/lo/lowriter", "--headless", "--convert-to", "pdf", "--outdir", out, "/tmp/x/report.odt"}, gotArgs)
}

func TestSOfficeNoOutput(t *testing.T) {
	stubExec(t,
		func(name string) (string, error) { return name, nil },
		func(ctx context.Context, name string, args ...string) ([]byte, error) { return nil, nil })

	_, err := SOffice{}.ToPDF(context.Background(), "a.txt", t.TempDir())
	assert.ErrorIs(t, err, ErrConversionError)
}

func TestSOfficeTimeoutIsTransient(t *testing.T) {
	stubExec(t,
		func(name string) (string, error) { return name, nil },
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			<-ctx.Done()
			return nil, errors.New("signal: killed")
		})

	_, err := SOffice{Timeout: 10 * time.Millisecond}.ToPDF(context.Background(), "slow.docx", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConversionTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrConversionError)

	wrapped := &ConversionError{File: "slow.docx", Err: err}
	assert.ErrorIs(t, wrapped, ErrConversionTimeout)
}

func TestSOfficeFailureIsNotTimeout(t *testing.T) {
	stubExec(t,
		func(name string) (string, error) { return name, nil },
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, errors.New("exit status 1")
		})

	_, err := SOffice{}.ToPDF(context.Background(), "a.docx", t.TempDir())
	assert.NotErrorIs(t, err, ErrConversionTimeout)
}

func TestHeavyLaneChecksConverterFirst(t *testing.T) {
	stubExec(t, func(string) (string, error) { return "", errors.New("not found") }, nil)
	scratch := t.TempDir()
	r := NewRouter(WithConverter(SOffice{Binary: "nosuch"}), WithScratchDir(scratch))

	_, err := r.Merge(context.Background(), Request{Files: []queue.File{qf("a.txt", "a")}, Output: KindPDF})
	assert.ErrorIs(t, err, ErrConversionUnavailable)
	assert.NotErrorIs(t, err, ErrConversionFailed)

	left, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestHeavyLaneConvertsInOrderAndCleansUp(t *testing.T) {
	scratch := t.TempDir()
	var converted []string
	conv := &fakeConverter{toPDF: func(ctx context.Context, in, outDir string) (string, error) {
		converted = append(converted, filepath.Base(in))
		stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		out := filepath.Join(outDir, stem+".pdf")
		data, err := os.ReadFile(in)
		if err != nil {
			return "", err
		}
		return out, os.WriteFile(out, append([]byte("converted:"), data...), 0o600)
	}}
	m := &fakeMerger{}
	r := NewRouter(WithConverter(conv), WithPDFMerger(m), WithScratchDir(scratch))

	res, err := r.Merge(context.Background(), Request{
		Files: []queue.File{
			qf("notes.txt", "n"),
			qf("scan.pdf", "P"),
			qf("src/notes.docx", "d"),
		},
		Output: KindPDF,
	})
	require.NoError(t, err)
	assert.Equal(t, MIMEPDF, res.MIME)
	assert.Equal(t, []string{"000_notes.txt", "002_notes.docx"}, converted)
	assert.Equal(t, [][]byte{[]byte("converted:n"), []byte("P"), []byte("converted:d")}, m.inputs)

	left, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestHeavyLaneFailureNamesFileAndCleansUp(t *testing.T) {
	scratch := t.TempDir()
	conv := &fakeConverter{toPDF: func(ctx context.Context, in, outDir string) (string, error) {
		if strings.HasSuffix(in, ".xlsx") {
			return "", &ToolError{Tool: "soffice", Stderr: "bad sheet", Err: errors.New("exit status 1")}
		}
		out := filepath.Join(outDir, "ok.pdf")
		return out, os.WriteFile(out, []byte("x"), 0o600)
	}}
	m := &fakeMerger{}
	r := NewRouter(WithConverter(conv), WithPDFMerger(m), WithScratchDir(scratch))

	res, err := r.Merge(context.Background(), Request{
		Files:  []queue.File{qf("a.txt", "a"), qf("budget.xlsx", "b"), qf("c.pdf", "c")},
		Output: KindPDF,
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.ErrorIs(t, err, ErrConversionError)
	var ce *ConversionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "budget.xlsx", ce.File)
	assert.Empty(t, m.inputs)

	left, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestHeavyLaneWithoutConverter(t *testing.T) {
	r := NewRouter(WithConverter(nil))
	_, err := r.Merge(context.Background(), Request{Files: []queue.File{qf("a.txt", "a")}, Output: KindPDF})
	assert.ErrorIs(t, err, ErrConversionUnavailable)
}
