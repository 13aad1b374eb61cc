package merge

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"docustream/pkg/queue"

	"golang.org/x/text/encoding/charmap"
)

// TextOptions controls the text lane.
type TextOptions struct {
	Sanitize      bool
	StripComments bool
}

var rule = strings.Repeat("=", 40)

// Separator is the header written before each file's content.
func Separator(name string) string {
	return "\n\n" + rule + "\n# File: " + name + "\n" + rule + "\n\n"
}

var languages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".html": "html",
	".css":  "css",
	".json": "json",
	".sql":  "sql",
	".java": "java",
	".c":    "c",
	".cpp":  "cpp",
	".sh":   "bash",
	".yml":  "yaml",
	".yaml": "yaml",
	".go":   "go",
	".rs":   "rust",
	".rb":   "ruby",
	".md":   "markdown",
}

// Language returns the fence tag for a file name's extension.
func Language(name string) (string, bool) {
	lang, ok := languages[queue.File{Name: name}.Ext()]
	return lang, ok
}

// DecodeText returns b as UTF-8 text. Invalid UTF-8 is read as Latin-1.
// It never fails.
func DecodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}

// RenderFile returns the block for one file: separator, then the
// optionally sanitized and fenced content.
func RenderFile(f queue.File, opts TextOptions) string {
	content := DecodeText(f.Content)
	switch {
	case opts.Sanitize:
		content = Sanitize(content, opts.StripComments)
	case opts.StripComments:
		content = StripComments(content)
	}
	if lang, ok := Language(f.Name); ok {
		content = fmt.Sprintf("```%s\n%s\n```", lang, content)
	}
	return Separator(f.Name) + content
}

// WriteText streams the text merge of files to w.
func WriteText(w io.Writer, files []queue.File, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	for _, f := range files {
		if _, err := bw.WriteString(RenderFile(f, opts)); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return bw.Flush()
}

// MergeText returns the text merge of files.
func MergeText(files []queue.File, opts TextOptions) string {
	var b strings.Builder
	for _, f := range files {
		b.WriteString(RenderFile(f, opts))
	}
	return b.String()
}
