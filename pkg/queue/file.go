// Package queue holds the ordered set of named byte buffers that a merge
// consumes, together with content hashing and local-disk import.
package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// File is one queued document. Content is never modified after creation.
type File struct {
	Name    string // Unique within a queue; carries the extension used for routing.
	Content []byte // Raw bytes as imported.
	Hash    string // Hex SHA-256 of Content.
	Source  string // Where it came from: a local path, URL or "paste".
}

// NewFile builds a File and computes its hash.
func NewFile(name string, content []byte, source string) File {
	return File{Name: name, Content: content, Hash: Hash(content), Source: source}
}

// Ext returns the lower-cased extension including the dot, or "".
func (f File) Ext() string {
	return strings.ToLower(path.Ext(f.Name))
}

// Size is the content length in bytes.
func (f File) Size() int {
	return len(f.Content)
}

// Hash computes the content digest used for deduplication.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// FormatSize renders a byte count for humans, e.g. "1.5 MB".
func FormatSize(n int64) string {
	const unit = 1024
	switch {
	case n < unit:
		return fmt.Sprintf("%d B", n)
	case n < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(n)/unit)
	case n < unit*unit*unit:
		return fmt.Sprintf("%.1f MB", float64(n)/(unit*unit))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(unit*unit*unit))
	}
}
