package merge

import (
	"regexp"
	"strings"
	"unicode"
)

// Redaction and comment stripping are regex and quote-count heuristics,
// not parsers. They never fail but can miss or over-match.

type redaction struct {
	re   *regexp.Regexp
	repl string
}

var redactions = []redaction{
	{regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`), "[REDACTED_API_KEY]"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "[REDACTED_AWS_KEY]"},
	{regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`), "[REDACTED_GOOGLE_KEY]"},
	{regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*["']?)([A-Za-z0-9_\-]{20,})(["']?)`), "${1}[REDACTED_KEY]${3}"},
}

// Redact replaces secret-shaped tokens with a marker naming their kind.
func Redact(text string) string {
	for _, r := range redactions {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}

// Sanitize redacts text and, when stripComments is set, removes trailing
// comments.
func Sanitize(text string, stripComments bool) string {
	text = Redact(text)
	if stripComments {
		text = StripComments(text)
	}
	return text
}

// StripComments removes "#" and "//" comments line by line. On lines that
// contain a URL only a whitespace-preceded marker not followed by a URL is
// cut. Elsewhere a marker is kept when an odd number of quotes precede it,
// and "//" is only cut when every occurrence is preceded by a space.
func StripComments(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, "http://") || strings.Contains(line, "https://") {
			line = cutSpacedMarker(line, "#", "://")
			line = cutSpacedMarker(line, "//", ":")
		} else {
			line = stripPlain(line)
		}
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.Join(lines, "\n")
}

func stripPlain(line string) string {
	if i := strings.Index(line, "#"); i >= 0 && !inQuote(line[:i]) {
		line = line[:i]
	}
	if strings.Contains(line, "//") && strings.Count(line, "//") == strings.Count(line, " //") {
		if j := strings.Index(line, " //"); j >= 0 && !inQuote(line[:j]) {
			line = line[:j]
		}
	}
	return line
}

// inQuote reports whether prefix leaves a string literal open, judged by
// the parity of its quote characters.
func inQuote(prefix string) bool {
	return (strings.Count(prefix, `"`)+strings.Count(prefix, "'"))%2 == 1
}

// cutSpacedMarker truncates line at the first whitespace run that is
// directly followed by marker, provided the rest of the line after the
// marker does not contain forbidden.
func cutSpacedMarker(line, marker, forbidden string) string {
	for j := 1; j < len(line); j++ {
		if !strings.HasPrefix(line[j:], marker) || !isSpace(line[j-1]) {
			continue
		}
		if strings.Contains(line[j+len(marker):], forbidden) {
			continue
		}
		start := j - 1
		for start > 0 && isSpace(line[start-1]) {
			start--
		}
		return line[:start]
	}
	return line
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f'
}
