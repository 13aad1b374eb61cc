// Package ignore compiles gitignore-style glob lines into matchers for
// slash-separated paths. It backs the .docustreamignore file and the
// --ignore flag for both local walks and remote repository trees.
package ignore

import (
	"os"
	"regexp"
	"strings"

	"docustream/pkg/logging"

	"go.uber.org/zap"
)

// FileName is the per-directory ignore file picked up by local walks.
const FileName = ".docustreamignore"

// Matcher reports whether a slash-separated path is ignored. Directory paths
// carry a trailing slash so that "dir/" patterns can match them.
type Matcher interface {
	MatchesPath(path string) bool
}

// Pattern is one compiled ignore line.
type Pattern struct {
	Regexp *regexp.Regexp // Compiled form of Line.
	Negate bool           // Line started with '!'.
	Line   string         // Original pattern text.
	Source string         // File the line came from, or "flag".
}

// List is an ordered set of patterns; the last matching pattern wins.
type List struct {
	Patterns []*Pattern
	logger   *zap.Logger
}

// New returns an empty list.
func New(logger *zap.Logger) *List {
	logger = logging.OrNop(logger)
	return &List{logger: logger}
}

// Load compiles every existing file in paths, in order. Missing files are
// skipped; unreadable ones are returned as errors.
func Load(logger *zap.Logger, paths ...string) (*List, error) {
	l := New(logger)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := l.CompileFile(p); err != nil {
			if os.IsNotExist(err) {
				l.logger.Debug("Ignore file not present", zap.String("file", p))
				continue
			}
			return nil, err
		}
	}
	return l, nil
}

// Compile adds pattern lines; source is recorded for diagnostics.
func (l *List) Compile(source string, lines ...string) {
	for _, line := range lines {
		re, negate := parseLine(line)
		if re == nil {
			continue
		}
		l.Patterns = append(l.Patterns, &Pattern{Regexp: re, Negate: negate, Line: strings.TrimSpace(line), Source: source})
	}
}

// CompileFile reads an ignore file and compiles its lines.
func (l *List) CompileFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(string(content), "\n")
	before := len(l.Patterns)
	l.Compile(path, lines...)
	l.logger.Debug("Compiled ignore file",
		zap.String("file", path),
		zap.Int("patterns", len(l.Patterns)-before))
	return nil
}

// Len is the number of compiled patterns.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Patterns)
}

// MatchesPath reports whether path is ignored.
func (l *List) MatchesPath(path string) bool {
	ok, _ := l.Match(path)
	return ok
}

// Match returns the decision and the pattern that produced it.
func (l *List) Match(path string) (bool, *Pattern) {
	if l == nil {
		return false, nil
	}
	path = strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "./")

	var last *Pattern
	matched := false
	for _, p := range l.Patterns {
		if p.Regexp.MatchString(path) {
			last = p
			matched = !p.Negate
		}
	}
	return matched, last
}

// parseLine converts one ignore line into an anchored regexp. Blank lines
// and comments yield nil.
func parseLine(line string) (*regexp.Regexp, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, false
	}

	negate := false
	if strings.HasPrefix(trimmed, "!") {
		negate = true
		trimmed = trimmed[1:]
	}
	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}

	rooted := strings.HasPrefix(trimmed, "/")
	dirOnly := strings.HasSuffix(trimmed, "/")
	body := strings.TrimSuffix(strings.TrimPrefix(trimmed, "/"), "/")
	if body == "" {
		return nil, false
	}

	expr := globToRegex(body)

	if dirOnly {
		expr += "/.*$"
	} else {
		expr += "(/.*)?$"
	}
	if rooted || strings.Contains(body, "/") {
		expr = "^" + expr
	} else {
		expr = "^(.*/)?" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, false
	}
	return re, negate
}

// globToRegex translates glob syntax to a regexp fragment. '**' spans
// directories, '*' and '?' stay within one path segment.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); {
		rest := glob[i:]
		switch {
		case i == 0 && strings.HasPrefix(rest, "**/"):
			b.WriteString(`(.*/)?`)
			i += 3
		case strings.HasPrefix(rest, "/**/"):
			b.WriteString(`/(.*/)?`)
			i += 4
		case rest == "/**":
			b.WriteString(`(/.*)?`)
			i += 3
		case strings.HasPrefix(rest, "**"):
			b.WriteString(`.*`)
			i += 2
		case rest[0] == '*':
			b.WriteString(`[^/]*`)
			i++
		case rest[0] == '?':
			b.WriteString(`[^/]`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(rest[:1]))
			i++
		}
	}
	return b.String()
}
