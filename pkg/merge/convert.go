package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"docustream/pkg/logging"

	"go.uber.org/zap"
)

// Converter turns one document into a PDF inside outDir and returns the
// path of the result.
type Converter interface {
	ToPDF(ctx context.Context, inputPath, outDir string) (string, error)
}

// lookPath and runCommand are injectable in tests.
var (
	lookPath   = exec.LookPath
	runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stderr = &stderr
		err := cmd.Run()
		return stderr.Bytes(), err
	}
)

// availability is implemented by converters that can look for their tool
// before any input is written.
type availability interface {
	Available() bool
}

// DefaultConvertTimeout bounds one conversion.
const DefaultConvertTimeout = 120 * time.Second

// SOffice converts with LibreOffice in headless mode.
type SOffice struct {
	Binary  string // Defaults to "soffice".
	Timeout time.Duration
	Logger  *zap.Logger
}

func (s SOffice) binary() string {
	if s.Binary == "" {
		return "soffice"
	}
	return s.Binary
}

// Available reports whether the converter binary can be found.
func (s SOffice) Available() bool {
	_, err := lookPath(s.binary())
	return err == nil
}

// ToPDF runs soffice --headless --convert-to pdf --outdir outDir inputPath.
// A run that outlives Timeout fails with an error matching both
// ErrConversionTimeout and context.DeadlineExceeded.
func (s SOffice) ToPDF(ctx context.Context, inputPath, outDir string) (string, error) {
	bin, err := lookPath(s.binary())
	if err != nil {
		return "", fmt.Errorf("%w: %s not found in PATH", ErrConversionUnavailable, s.binary())
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := logging.OrNop(s.Logger)
	logger.Debug("Converting document", zap.String("input", inputPath), zap.String("binary", bin))

	stderr, err := runCommand(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, inputPath)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", ErrConversionUnavailable, err)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", ErrConversionTimeout, timeout, ctx.Err())
		} else if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", &ToolError{Tool: filepath.Base(bin), Stderr: string(stderr), Err: err}
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(outDir, base+".pdf")
	if _, err := os.Stat(out); err != nil {
		return "", &ToolError{Tool: filepath.Base(bin), Stderr: string(stderr), Err: fmt.Errorf("no output at %s", out)}
	}
	return out, nil
}
