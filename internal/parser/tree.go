package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// TreeNode is a detached, labelled copy of a concrete syntax tree node.
// Internal nodes carry the grammar rule name, leaves the token text.
type TreeNode struct {
	Label    string
	Error    bool
	Children []*TreeNode
}

// Size returns the number of nodes in the subtree
func (t *TreeNode) Size() int {
	if t == nil {
		return 0
	}
	n := 1
	for _, c := range t.Children {
		n += c.Size()
	}
	return n
}

// Depth returns the number of levels in the subtree
func (t *TreeNode) Depth() int {
	if t == nil {
		return 0
	}
	deepest := 0
	for _, c := range t.Children {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// BuildLabelTree copies the parse tree into TreeNodes suitable for drawing.
// Anonymous tokens (punctuation, keywords) are kept so the picture shows the
// full concrete tree.
func BuildLabelTree(result *ParseResult) *TreeNode {
	if result == nil || result.RootNode == nil {
		return nil
	}
	return buildLabelNode(result.RootNode, result.SourceCode)
}

func buildLabelNode(n *sitter.Node, source []byte) *TreeNode {
	node := &TreeNode{
		Label: nodeLabel(n, source),
		Error: n.IsError() || n.IsMissing(),
	}

	count := int(n.ChildCount())
	if count > 0 {
		node.Children = make([]*TreeNode, 0, count)
	}
	for i := 0; i < count; i++ {
		node.Children = append(node.Children, buildLabelNode(n.Child(i), source))
	}
	return node
}

func nodeLabel(n *sitter.Node, source []byte) string {
	switch {
	case n.IsMissing():
		return "<missing " + n.Type() + ">"
	case n.IsError():
		return "ERROR"
	case n.ChildCount() == 0:
		text := escapeLabel(n.Content(source))
		if text == "" {
			return n.Type()
		}
		return text
	default:
		return n.Type()
	}
}

// escapeLabel keeps labels on a single line
func escapeLabel(s string) string {
	r := strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return snippet(r.Replace(s))
}
