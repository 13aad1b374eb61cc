package tree

import (
	"sort"
	"strings"

	"docustream/pkg/logging"

	"go.uber.org/zap"
)

// Node is one element of the rebuilt hierarchy.
type Node struct {
	Label    string // Last path segment.
	FullPath string
	Kind     Kind
	Size     int64
	Children []*Node // Directories only, in path order.
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Kind == KindDir }

// BuildHierarchy rebuilds a flat listing into root-level nodes. Entries are
// sorted by path first so that every directory is built before its
// children. A child whose parent directory is absent from the listing (for
// example after filtering removed it) is attached at root level and logged.
func BuildHierarchy(entries []Entry, logger *zap.Logger) []*Node {
	logger = logging.OrNop(logger)
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var roots []*Node
	byPath := make(map[string]*Node, len(sorted))

	for _, e := range sorted {
		node := &Node{
			Label:    e.Name(),
			FullPath: e.Path,
			Kind:     e.Kind,
			Size:     e.Size,
		}
		if e.IsDir() {
			node.Children = []*Node{}
		}
		byPath[e.Path] = node

		i := strings.LastIndex(e.Path, "/")
		if i < 0 {
			roots = append(roots, node)
			continue
		}
		parentPath := e.Path[:i]
		if parent, ok := byPath[parentPath]; ok && parent.IsDir() {
			parent.Children = append(parent.Children, node)
			continue
		}
		logger.Debug("Parent directory missing from tree; attaching at root",
			zap.String("path", e.Path),
			zap.String("parent", parentPath))
		roots = append(roots, node)
	}

	return roots
}

// Flatten walks nodes depth-first and returns the equivalent flat listing.
// SHA values are not part of a Node and come back empty.
func Flatten(nodes []*Node) []Entry {
	var out []Entry
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			out = append(out, Entry{Path: n.FullPath, Kind: n.Kind, Size: n.Size})
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

// Count returns the number of files and directories under nodes.
func Count(nodes []*Node) (files, dirs int) {
	for _, n := range nodes {
		if n.IsDir() {
			dirs++
			f, d := Count(n.Children)
			files += f
			dirs += d
			continue
		}
		files++
	}
	return files, dirs
}
