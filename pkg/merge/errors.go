package merge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyInput            = errors.New("no files to merge")
	ErrUnsupportedFormat     = errors.New("unsupported output format")
	ErrIncompatibleInputs    = errors.New("inputs are incompatible with the output format")
	ErrConversionUnavailable = errors.New("document converter not available")
	ErrConversionFailed      = errors.New("conversion failed")
	ErrConversionError       = errors.New("converter reported an error")
	ErrDecodeFailure         = errors.New("could not decode content")

	// ErrConversionTimeout marks a converter run that hit its deadline. It
	// is transient: the same input may convert on a retry.
	ErrConversionTimeout = errors.New("conversion timed out")
)

// ConversionError names the file whose conversion aborted a merge.
type ConversionError struct {
	File string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert %s: %v", e.File, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Is makes every ConversionError match ErrConversionFailed.
func (e *ConversionError) Is(target error) bool { return target == ErrConversionFailed }

// ToolError carries the diagnostic output of a failed converter run.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is makes every ToolError match ErrConversionError.
func (e *ToolError) Is(target error) bool { return target == ErrConversionError }
