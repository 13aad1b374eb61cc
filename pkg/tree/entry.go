// Package tree filters flat repository listings and rebuilds them into a
// hierarchy for selection and display.
package tree

import (
	"path"
	"strings"
)

// Kind distinguishes files from directories.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "directory"
)

// Entry is one item of a flat listing. Path is slash-separated with no
// leading slash; every descendant of a directory has the directory's path
// plus "/" as prefix.
type Entry struct {
	Path string
	Kind Kind
	Size int64
	SHA  string // Opaque content id from the remote.
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Kind == KindDir }

// Name is the last path segment.
func (e Entry) Name() string { return path.Base(e.Path) }

// Ext returns the lower-cased extension of the last segment, including the
// dot, or "" when the name has none. A dotfile such as ".gitignore" yields
// ".gitignore".
func (e Entry) Ext() string {
	name := e.Name()
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// Paths returns the Path of every entry, in order.
func Paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

// Files returns only file entries, in order.
func Files(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e)
		}
	}
	return out
}
