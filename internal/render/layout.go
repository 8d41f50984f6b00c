// Package render draws parse trees as bitmap images.
//
// Layout is a simple top-down tidy tree: every subtree gets a horizontal
// span wide enough for its own label and for its children side by side,
// and parents are centred over their children. The canvas is sized to the
// natural extent of the layout times a fixed factor. Trees whose canvas
// would exceed Style.MaxPixels are drawn at a smaller factor instead.
package render

import (
	"fmt"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/ludo-technologies/pytree/internal/parser"
)

// Style controls spacing, font and colours of a rendered tree
type Style struct {
	Face      font.Face
	PadX      int // horizontal padding around a label
	PadY      int // vertical padding around a label
	HGap      int // gap between sibling subtrees
	VGap      int // gap between levels
	Margin    int // blank border around the tree
	Scale     float64
	MaxPixels int // canvas area limit, 0 for none

	Background color.Color
	Text       color.Color
	ErrorText  color.Color
	Edge       color.Color
}

// DefaultStyle returns the style used for tree images
func DefaultStyle() Style {
	return Style{
		Face:       basicfont.Face7x13,
		PadX:       4,
		PadY:       3,
		HGap:       8,
		VGap:       24,
		Margin:     10,
		Scale:      1.2,
		MaxPixels:  50_000_000,
		Background: color.White,
		Text:       color.Black,
		ErrorText:  color.RGBA{R: 0xd0, A: 0xff},
		Edge:       color.Gray{Y: 0x80},
	}
}

// Box is a positioned label
type Box struct {
	Label    string
	Error    bool
	X, Y     int // top-left corner
	W, H     int
	Children []*Box
}

// CenterX returns the horizontal centre of the box
func (b *Box) CenterX() int { return b.X + b.W/2 }

// Bottom returns the y coordinate just below the box
func (b *Box) Bottom() int { return b.Y + b.H }

// Layout is a tree of positioned boxes plus the natural canvas size
type Layout struct {
	Root   *Box
	Width  int
	Height int
	Nodes  int
}

// ScaledSize returns the canvas size after applying scale
func (l *Layout) ScaledSize(scale float64) (int, int) {
	if scale <= 0 {
		scale = 1
	}
	return int(float64(l.Width)*scale + 0.5), int(float64(l.Height)*scale + 0.5)
}

type measured struct {
	node     *parser.TreeNode
	labelW   int
	span     int
	children []*measured
}

// ComputeLayout positions every node of tree
func ComputeLayout(tree *parser.TreeNode, style Style) (*Layout, error) {
	if tree == nil {
		return nil, fmt.Errorf("empty tree")
	}
	if style.Face == nil {
		style.Face = basicfont.Face7x13
	}

	metrics := style.Face.Metrics()
	boxH := (metrics.Ascent + metrics.Descent).Ceil() + 2*style.PadY

	m := measure(tree, style)
	layout := &Layout{}
	layout.Root = place(m, style.Margin, 0, boxH, style, layout)

	depth := tree.Depth()
	layout.Width = m.span + 2*style.Margin
	layout.Height = depth*boxH + (depth-1)*style.VGap + 2*style.Margin
	return layout, nil
}

func measure(n *parser.TreeNode, style Style) *measured {
	m := &measured{
		node:   n,
		labelW: font.MeasureString(style.Face, n.Label).Ceil() + 2*style.PadX,
	}

	childSpan := 0
	for i, c := range n.Children {
		cm := measure(c, style)
		m.children = append(m.children, cm)
		if i > 0 {
			childSpan += style.HGap
		}
		childSpan += cm.span
	}

	m.span = m.labelW
	if childSpan > m.span {
		m.span = childSpan
	}
	return m
}

func place(m *measured, left, level, boxH int, style Style, layout *Layout) *Box {
	layout.Nodes++

	box := &Box{
		Label: m.node.Label,
		Error: m.node.Error,
		X:     left + (m.span-m.labelW)/2,
		Y:     style.Margin + level*(boxH+style.VGap),
		W:     m.labelW,
		H:     boxH,
	}

	childSpan := 0
	for i, c := range m.children {
		if i > 0 {
			childSpan += style.HGap
		}
		childSpan += c.span
	}

	x := left + (m.span-childSpan)/2
	for _, c := range m.children {
		box.Children = append(box.Children, place(c, x, level+1, boxH, style, layout))
		x += c.span + style.HGap
	}
	return box
}
