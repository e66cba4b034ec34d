// Package tree turns a flat recursive repository listing into the nested,
// filtered and sorted file tree shown to operators.
package tree

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/MyTechPlan/oc-client/internal/repository"
)

// WorkspaceBase is the subdirectory that becomes the tree root when present.
const WorkspaceBase = "workspace"

// Node is a file or directory in the tree. Path is the full repository path;
// Name is its final segment.
type Node struct {
	Name     string
	Path     string
	Type     repository.EntryType
	Children []*Node
}

type nodeJSON struct {
	Name     string               `json:"name"`
	Path     string               `json:"path"`
	Type     repository.EntryType `json:"type"`
	Children *[]*Node             `json:"children,omitempty"`
}

// MarshalJSON emits children for directories only, as an empty list when
// the directory has none.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{Name: n.Name, Path: n.Path, Type: n.Type}
	if n.Type == repository.EntryDir {
		children := n.Children
		if children == nil {
			children = []*Node{}
		}
		out.Children = &children
	}
	return json.Marshal(out)
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Type == repository.EntryDir
}

// Forest is the built tree: the detected base path and its top-level nodes.
type Forest struct {
	BasePath string
	Nodes    []*Node
}

type candidate struct {
	rel   string
	depth int
	entry repository.Entry
}

// Build converts a flat listing into a sorted forest.
//
// When any path lies under workspace/, only that subtree is kept and it
// becomes the root. Entries are attached in order of depth; an entry whose
// parent directory is not itself in the listing is dropped, as are repeated
// paths.
func Build(entries []repository.Entry) Forest {
	base := detectBase(entries)

	candidates := make([]candidate, 0, len(entries))
	for _, e := range entries {
		full := strings.Trim(e.Path, "/")
		rel := full
		if base != "" {
			if !strings.HasPrefix(full, base+"/") {
				continue
			}
			rel = strings.TrimPrefix(full, base+"/")
		}
		if rel == "" || Hidden(rel, e.Type) {
			continue
		}
		e.Path = full
		candidates = append(candidates, candidate{
			rel:   rel,
			depth: strings.Count(rel, "/"),
			entry: e,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].depth < candidates[j].depth
	})

	roots := make([]*Node, 0)
	dirs := make(map[string]*Node)
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		if _, dup := seen[c.rel]; dup {
			continue
		}

		parent, name := "", c.rel
		if i := strings.LastIndex(c.rel, "/"); i >= 0 {
			parent, name = c.rel[:i], c.rel[i+1:]
		}

		node := &Node{Name: name, Path: c.entry.Path, Type: c.entry.Type}
		if node.IsDir() {
			node.Children = []*Node{}
		}

		if parent == "" {
			roots = append(roots, node)
		} else {
			p, ok := dirs[parent]
			if !ok {
				continue
			}
			p.Children = append(p.Children, node)
		}

		seen[c.rel] = struct{}{}
		if node.IsDir() {
			dirs[c.rel] = node
		}
	}

	sortNodes(roots)
	return Forest{BasePath: base, Nodes: roots}
}

func detectBase(entries []repository.Entry) string {
	for _, e := range entries {
		if strings.HasPrefix(strings.TrimPrefix(e.Path, "/"), WorkspaceBase+"/") {
			return WorkspaceBase
		}
	}
	return ""
}

// sortNodes orders directories before files, then names by byte value.
func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return strings.Compare(a.Name, b.Name) < 0
	})
	for _, n := range nodes {
		if n.IsDir() {
			sortNodes(n.Children)
		}
	}
}
