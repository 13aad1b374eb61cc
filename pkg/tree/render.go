package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Render draws nodes as an indented ascii tree. Within each level
// directories come first, then files, alphabetically ignoring case.
// Directory names get a trailing slash.
func Render(nodes []*Node) string {
	var b strings.Builder
	renderLevel(&b, nodes, "")
	return b.String()
}

// RenderWithSizes is Render with a human-readable size after each file.
func RenderWithSizes(nodes []*Node, format func(int64) string) string {
	var b strings.Builder
	renderLevelFunc(&b, nodes, "", func(n *Node) string {
		if n.IsDir() || format == nil {
			return ""
		}
		return fmt.Sprintf(" (%s)", format(n.Size))
	})
	return b.String()
}

func renderLevel(b *strings.Builder, nodes []*Node, prefix string) {
	renderLevelFunc(b, nodes, prefix, func(*Node) string { return "" })
}

func renderLevelFunc(b *strings.Builder, nodes []*Node, prefix string, suffix func(*Node) string) {
	ordered := append([]*Node(nil), nodes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].IsDir() != ordered[j].IsDir() {
			return ordered[i].IsDir()
		}
		return strings.ToLower(ordered[i].Label) < strings.ToLower(ordered[j].Label)
	})

	for i, n := range ordered {
		connector := "├── "
		extension := "│   "
		if i == len(ordered)-1 {
			connector = "└── "
			extension = "    "
		}

		name := n.Label
		if n.IsDir() {
			name += "/"
		}
		fmt.Fprintf(b, "%s%s%s%s\n", prefix, connector, name, suffix(n))
		if n.IsDir() {
			renderLevelFunc(b, n.Children, prefix+extension, suffix)
		}
	}
}
