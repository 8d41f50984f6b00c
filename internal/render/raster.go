package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ludo-technologies/pytree/internal/parser"
)

// Result is a rasterized tree together with the scale that was applied
type Result struct {
	Image image.Image

	// Scale is the factor actually used. It is below the requested
	// Style.Scale when the tree had to shrink to fit Style.MaxPixels.
	Scale     float64
	Requested float64
}

// Reduced reports whether the image was drawn smaller than requested
func (r *Result) Reduced() bool { return r.Scale < r.Requested }

// Render lays out and rasterizes tree
func Render(tree *parser.TreeNode, style Style) (*Result, error) {
	layout, err := ComputeLayout(tree, style)
	if err != nil {
		return nil, err
	}
	return Rasterize(layout, style)
}

// FitScale returns scale, or the largest smaller factor whose canvas stays
// within maxPixels. A maxPixels of zero disables the limit.
func FitScale(l *Layout, scale float64, maxPixels int) float64 {
	if scale <= 0 {
		scale = 1
	}
	if maxPixels <= 0 || l.Width <= 0 || l.Height <= 0 {
		return scale
	}
	w, h := l.ScaledSize(scale)
	if int64(w)*int64(h) <= int64(maxPixels) {
		return scale
	}

	fitted := math.Sqrt(float64(maxPixels) / (float64(l.Width) * float64(l.Height)))
	// ScaledSize rounds to the nearest pixel, which can land just above the limit
	for i := 0; i < 16; i++ {
		w, h = l.ScaledSize(fitted)
		if int64(max(w, 1))*int64(max(h, 1)) <= int64(maxPixels) {
			break
		}
		fitted *= 0.99
	}
	return fitted
}

// Rasterize paints a layout on a canvas of its natural size times
// style.Scale. When that canvas would exceed style.MaxPixels the scale is
// lowered until it fits. Everything is drawn directly at the final scale,
// so the canvas is the only full-size buffer.
func Rasterize(layout *Layout, style Style) (*Result, error) {
	if layout == nil || layout.Root == nil {
		return nil, fmt.Errorf("empty layout")
	}
	style = withDefaults(style)

	requested := style.Scale
	if requested <= 0 {
		requested = 1
	}
	scale := FitScale(layout, requested, style.MaxPixels)

	sw, sh := layout.ScaledSize(scale)
	canvas := image.NewRGBA(image.Rect(0, 0, max(sw, 1), max(sh, 1)))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(style.Background), image.Point{}, draw.Src)

	drawEdges(canvas, layout.Root, scale, image.NewUniform(style.Edge))

	lr := &labelRenderer{dst: canvas, style: style, scale: scale}
	lr.draw(layout.Root)

	return &Result{Image: canvas, Scale: scale, Requested: requested}, nil
}

// WritePNG encodes img as PNG
func WritePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}

// withDefaults fills unset font and colours from DefaultStyle
func withDefaults(style Style) Style {
	def := DefaultStyle()
	if style.Face == nil {
		style.Face = def.Face
	}
	if style.Background == nil {
		style.Background = def.Background
	}
	if style.Text == nil {
		style.Text = def.Text
	}
	if style.ErrorText == nil {
		style.ErrorText = def.ErrorText
	}
	if style.Edge == nil {
		style.Edge = def.Edge
	}
	return style
}

type segment struct {
	x0, y0, x1, y1 float64
}

// collectEdges groups parent-child segments by the parent's bottom edge.
// All segments of one group lie in the horizontal band between two levels.
func collectEdges(b *Box, bands map[int][]segment) {
	for _, c := range b.Children {
		bands[b.Bottom()] = append(bands[b.Bottom()], segment{
			x0: float64(b.CenterX()), y0: float64(b.Bottom()),
			x1: float64(c.CenterX()), y1: float64(c.Y),
		})
		collectEdges(c, bands)
	}
}

// drawEdges strokes the tree edges one level band at a time with a
// rasterizer no taller than the band.
func drawEdges(dst *image.RGBA, root *Box, scale float64, src image.Image) {
	bands := make(map[int][]segment)
	collectEdges(root, bands)

	keys := make([]int, 0, len(bands))
	for k := range bands {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	width := float32(math.Max(scale, 0.5))
	bounds := dst.Bounds()
	var z vector.Rasterizer

	for _, k := range keys {
		segs := bands[k]
		bottom := segs[0].y1
		for _, s := range segs[1:] {
			bottom = math.Max(bottom, s.y1)
		}

		r := image.Rect(
			bounds.Min.X, int(math.Floor(float64(k)*scale))-1,
			bounds.Max.X, int(math.Ceil(bottom*scale))+1,
		).Intersect(bounds)
		if r.Empty() {
			continue
		}

		z.Reset(r.Dx(), r.Dy())
		oy := float64(r.Min.Y)
		for _, s := range segs {
			strokeLine(&z,
				float32(s.x0*scale), float32(s.y0*scale-oy),
				float32(s.x1*scale), float32(s.y1*scale-oy),
				width)
		}
		z.Draw(dst, r, src, image.Point{})
	}
}

// strokeLine adds a segment of the given width as a thin quadrilateral
func strokeLine(z *vector.Rasterizer, x0, y0, x1, y1, width float32) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2

	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

// labelRenderer draws box labels. At unit scale text goes straight onto the
// canvas; otherwise each label is drawn into a small scratch image and
// resampled into its scaled box.
type labelRenderer struct {
	dst     *image.RGBA
	style   Style
	scale   float64
	scratch *image.RGBA
}

func (lr *labelRenderer) draw(b *Box) {
	var col color.Color = lr.style.Text
	if b.Error {
		col = lr.style.ErrorText
	}

	if lr.scale == 1 {
		lr.drawString(lr.dst, b.Label, col, b.X, b.Y)
	} else {
		lr.drawScaled(b, col)
	}

	for _, c := range b.Children {
		lr.draw(c)
	}
}

func (lr *labelRenderer) drawString(dst draw.Image, label string, col color.Color, x, y int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: lr.style.Face,
		Dot:  fixed.P(x+lr.style.PadX, y+lr.style.PadY+lr.style.Face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(label)
}

func (lr *labelRenderer) drawScaled(b *Box, col color.Color) {
	dr := image.Rect(
		int(math.Floor(float64(b.X)*lr.scale)), int(math.Floor(float64(b.Y)*lr.scale)),
		int(math.Ceil(float64(b.X+b.W)*lr.scale)), int(math.Ceil(float64(b.Bottom())*lr.scale)),
	).Intersect(lr.dst.Bounds())
	if dr.Empty() || b.W <= 0 || b.H <= 0 {
		return
	}

	if lr.scratch == nil || lr.scratch.Bounds().Dx() < b.W || lr.scratch.Bounds().Dy() < b.H {
		w, h := b.W, b.H
		if lr.scratch != nil {
			w = max(w, lr.scratch.Bounds().Dx())
			h = max(h, lr.scratch.Bounds().Dy())
		}
		lr.scratch = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	sr := image.Rect(0, 0, b.W, b.H)
	label := lr.scratch.SubImage(sr).(*image.RGBA)
	draw.Draw(label, sr, image.Transparent, image.Point{}, draw.Src)

	lr.drawString(label, b.Label, col, 0, 0)
	draw.ApproxBiLinear.Scale(lr.dst, dr, label, sr, draw.Over, nil)
}
