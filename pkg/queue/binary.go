package queue

import (
	"bytes"
	"strings"
)

// sniffLen is how much of a file is inspected by LooksBinary.
const sniffLen = 512

// binaryExtensions are formats that are never plain text, even when their
// first bytes happen to be printable.
var binaryExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".doc": true, ".xlsx": true, ".pptx": true,
	".odt": true, ".zip": true, ".gz": true, ".tar": true, ".7z": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".ico": true, ".exe": true, ".dll": true, ".so": true, ".bin": true,
}

// LooksBinary reports whether f is probably not text: a known binary
// extension, a NUL byte in the first 512 bytes, or more than 30% of those
// bytes non-printable. Empty files count as text.
func LooksBinary(f File) bool {
	if binaryExtensions[f.Ext()] {
		return true
	}
	head := f.Content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if len(head) == 0 {
		return false
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for _, b := range head {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(head)) > 0.3
}

// isPrintable accepts ASCII text, common whitespace and any byte of a
// multi-byte UTF-8 sequence.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b >= 0x80
}

// HasBinaryExtension reports whether name ends in a known binary extension.
func HasBinaryExtension(name string) bool {
	i := strings.LastIndex(name, ".")
	return i >= 0 && binaryExtensions[strings.ToLower(name[i:])]
}
