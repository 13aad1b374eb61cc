package tree

import (
	"strings"

	"docustream/pkg/ignore"
)

// Filters selects entries from a flat listing. Every field is optional.
type Filters struct {
	ExcludeDirs       []string       // Drop entries with any path segment equal to one of these.
	IncludeExtensions []string       // When non-empty, keep only files with these extensions (".py").
	ExcludeExtensions []string       // Drop files with these extensions.
	ExcludePatterns   []string       // Drop entries whose path contains any of these substrings.
	Ignore            ignore.Matcher // Drop entries matching gitignore-style globs.
}

// Empty reports whether f keeps everything.
func (f Filters) Empty() bool {
	return len(f.ExcludeDirs) == 0 && len(f.IncludeExtensions) == 0 &&
		len(f.ExcludeExtensions) == 0 && len(f.ExcludePatterns) == 0 && f.Ignore == nil
}

// Merge combines two filter sets; list fields are concatenated and the
// receiver's Ignore wins when both are set.
func (f Filters) Merge(o Filters) Filters {
	out := Filters{
		ExcludeDirs:       append(append([]string(nil), f.ExcludeDirs...), o.ExcludeDirs...),
		IncludeExtensions: append(append([]string(nil), f.IncludeExtensions...), o.IncludeExtensions...),
		ExcludeExtensions: append(append([]string(nil), f.ExcludeExtensions...), o.ExcludeExtensions...),
		ExcludePatterns:   append(append([]string(nil), f.ExcludePatterns...), o.ExcludePatterns...),
		Ignore:            f.Ignore,
	}
	if out.Ignore == nil {
		out.Ignore = o.Ignore
	}
	return out
}

// ApplyFilters returns the entries of tree that pass f, in their original
// order. The input slice is not modified. Directories are never dropped by
// extension rules. Applying the same filters twice yields the same result.
func ApplyFilters(entries []Entry, f Filters) []Entry {
	excludeDirs := toSet(f.ExcludeDirs, false)
	include := toSet(f.IncludeExtensions, true)
	exclude := toSet(f.ExcludeExtensions, true)

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if hasExcludedSegment(e.Path, excludeDirs) {
			continue
		}
		if containsAny(e.Path, f.ExcludePatterns) {
			continue
		}
		if f.Ignore != nil {
			p := e.Path
			if e.IsDir() {
				p += "/"
			}
			if f.Ignore.MatchesPath(p) {
				continue
			}
		}

		if !e.IsDir() {
			ext := e.Ext()
			if len(include) > 0 && !include[ext] && !(isExtensionless(e) && IsKnownFile(e.Name())) {
				continue
			}
			if ext != "" && exclude[ext] {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// isExtensionless is true for names like "Makefile" and for dotfiles such
// as ".gitignore", whose only dot is the leading one.
func isExtensionless(e Entry) bool {
	name := e.Name()
	return !strings.Contains(strings.TrimPrefix(name, "."), ".")
}

// knownFiles are conventional names without a meaningful extension.
var knownFiles = map[string]bool{
	"Dockerfile": true, "Makefile": true, "LICENSE": true, "README": true,
	"CHANGELOG": true, "Procfile": true, "Gemfile": true, "Rakefile": true,
	"Vagrantfile": true, "Brewfile": true, "Pipfile": true, "Podfile": true,
	".gitignore": true, ".gitattributes": true, ".dockerignore": true,
	".editorconfig": true, ".env": true,
}

// IsKnownFile reports whether name is a recognized extensionless file: one
// of the conventional names above or any dotfile.
func IsKnownFile(name string) bool {
	return knownFiles[name] || strings.HasPrefix(name, ".")
}

// ParseExtensions splits a comma-separated list such as "py, .js" into
// normalized extensions [".py", ".js"].
func ParseExtensions(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	return out
}

func toSet(values []string, lower bool) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if lower {
			v = strings.ToLower(v)
		}
		set[v] = true
	}
	return set
}

func hasExcludedSegment(p string, dirs map[string]bool) bool {
	if len(dirs) == 0 {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if dirs[seg] {
			return true
		}
	}
	return false
}

func containsAny(p string, patterns []string) bool {
	for _, pat := range patterns {
		if pat != "" && strings.Contains(p, pat) {
			return true
		}
	}
	return false
}
