package tree

import (
	"fmt"
	"sort"
)

// Preset is a named, reusable filter set.
type Preset struct {
	Name        string
	Description string
	Filters     Filters
}

// Presets are the built-in filter sets selectable with --preset.
var Presets = map[string]Preset{
	"exclude_common": {
		Name:        "Exclude Common Dirs",
		Description: "node_modules, venv, __pycache__, .git, etc.",
		Filters: Filters{ExcludeDirs: []string{
			"node_modules", "venv", ".venv", "env", ".env",
			"__pycache__", ".git", ".svn", ".hg",
			"dist", "build", ".next", ".nuxt",
			"coverage", ".nyc_output", ".pytest_cache",
			"vendor", "packages", ".idea", ".vscode",
		}},
	},
	"source_only": {
		Name:        "Source Files Only",
		Description: "Only code files, no configs/docs",
		Filters: Filters{IncludeExtensions: []string{
			".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".c", ".cpp", ".h",
			".cs", ".go", ".rs", ".rb", ".php", ".swift", ".kt", ".scala",
			".vue", ".svelte", ".html", ".css", ".scss", ".sass", ".less",
		}},
	},
}

// PresetFilters looks up a preset by key.
func PresetFilters(key string) (Filters, error) {
	p, ok := Presets[key]
	if !ok {
		return Filters{}, fmt.Errorf("unknown filter preset %q (available: %v)", key, PresetNames())
	}
	return p.Filters, nil
}

// PresetNames lists preset keys in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for k := range Presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
