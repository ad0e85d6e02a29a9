// Package menu holds the hierarchical permission tree for the current
// principal and answers the access queries the rest of the gateway depends
// on: grant checks, first-accessible-path resolution, and role-aware label
// lookup.
package menu

import (
	"encoding/json"

	"github.com/cdss/cdss-web/internal/core/role"
)

// Node is one entry in the permission tree. A node with children is a group:
// it carries no grant of its own and is visible only when some descendant
// leaf is granted. A node without children is a leaf and is independently
// grantable.
type Node struct {
	ID             string               `json:"id"`
	Path           string               `json:"path,omitempty"`
	Icon           string               `json:"icon,omitempty"`
	BreadcrumbOnly bool                 `json:"breadcrumbOnly,omitempty"`
	Labels         map[role.Role]string `json:"labels,omitempty"`
	DefaultLabel   string               `json:"defaultLabel,omitempty"`
	Children       []*Node              `json:"children,omitempty"`
}

// IsGroup reports whether the node has children.
func (n *Node) IsGroup() bool {
	return len(n.Children) > 0
}

// Tree is an ordered sequence of root nodes scoped to one principal. A Tree
// is immutable once published to the store; refreshes build a new Tree and
// swap it wholesale.
type Tree struct {
	Roots []*Node `json:"roots"`
}

// wireNode mirrors the backend's nested menu payload, which keys labels by
// raw role code strings.
type wireNode struct {
	ID             string            `json:"id"`
	Path           string            `json:"path,omitempty"`
	Icon           string            `json:"icon,omitempty"`
	BreadcrumbOnly bool              `json:"breadcrumb_only,omitempty"`
	Labels         map[string]string `json:"labels,omitempty"`
	Children       []*wireNode       `json:"children,omitempty"`
}

// DecodeTree parses the backend's nested menu payload into a Tree. Labels
// keyed by unknown role codes are dropped; the "DEFAULT" key becomes the
// node's default label.
func DecodeTree(data []byte) (*Tree, error) {
	var roots []*wireNode
	if err := json.Unmarshal(data, &roots); err != nil {
		return nil, err
	}
	t := &Tree{Roots: make([]*Node, 0, len(roots))}
	for _, wn := range roots {
		t.Roots = append(t.Roots, wn.toNode())
	}
	return t, nil
}

func (wn *wireNode) toNode() *Node {
	n := &Node{
		ID:             wn.ID,
		Path:           wn.Path,
		Icon:           wn.Icon,
		BreadcrumbOnly: wn.BreadcrumbOnly,
	}
	for code, text := range wn.Labels {
		if code == "DEFAULT" {
			n.DefaultLabel = text
			continue
		}
		r, err := role.Parse(code)
		if err != nil {
			continue
		}
		if n.Labels == nil {
			n.Labels = make(map[role.Role]string)
		}
		n.Labels[r] = text
	}
	for _, c := range wn.Children {
		n.Children = append(n.Children, c.toNode())
	}
	return n
}
