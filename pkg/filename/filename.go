// Package filename validates and repairs user-supplied file names before they
// enter a merge queue or become a download name.
package filename

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxLength is the longest accepted name, in bytes.
const MaxLength = 255

// Fallback replaces a name that sanitizes down to nothing.
const Fallback = "unnamed_file"

var (
	ErrEmpty         = errors.New("filename cannot be empty")
	ErrTooLong       = fmt.Errorf("filename too long (max %d characters)", MaxLength)
	ErrPathTraversal = errors.New("filename cannot contain path separators or '..' sequences")
	ErrInvalidChars  = errors.New("filename contains invalid characters")
	ErrReserved      = errors.New("filename is a reserved system name")
)

var invalidChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Validate checks name for traversal, invalid characters and reserved
// Windows device names. The returned error wraps one of the Err values.
func Validate(name string) error {
	if name == "" {
		return ErrEmpty
	}
	if len(name) > MaxLength {
		return ErrTooLong
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return ErrPathTraversal
	}
	if invalidChars.MatchString(name) {
		return ErrInvalidChars
	}
	if reservedNames[strings.ToUpper(stem(name))] {
		return fmt.Errorf("%q: %w", name, ErrReserved)
	}
	return nil
}

// Sanitize returns a name that passes Validate for all but reserved device
// names, which are prefixed with an underscore.
func Sanitize(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = invalidChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	name = strings.Trim(strings.ReplaceAll(name, "..", "_"), ". ")
	if name == "" {
		return Fallback
	}
	if reservedNames[strings.ToUpper(stem(name))] {
		name = "_" + name
	}

	if len(name) > MaxLength {
		base, ext := name, ""
		if i := strings.LastIndex(name, "."); i > 0 {
			base, ext = name[:i], name[i:]
		}
		keep := MaxLength - len(ext)
		if keep <= 0 {
			return name[:MaxLength]
		}
		name = base[:keep] + ext
	}
	return name
}

// stem is the name without its final extension.
func stem(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}
