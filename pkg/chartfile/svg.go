package chartfile

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// SVGOptions controls SVG rendering.
type SVGOptions struct {
	Width    int // canvas width; 0 sizes the canvas to the chart
	Height   int // canvas height; 0 sizes the canvas to the chart
	Padding  int
	FontSize int
	Title    string
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Padding:  20,
		FontSize: 14,
	}
}

// GenerateSVG renders the same nested-box preview as RenderPNG as a
// standalone SVG document. Boxes are measured with the Go regular font so
// labels fit when the viewer substitutes a sans-serif face.
func GenerateSVG(c *chart.Statechart, opts SVGOptions) (string, error) {
	def := DefaultSVGOptions()
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}

	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return "", err
	}
	face, err := newFace(fnt, float64(opts.FontSize))
	if err != nil {
		return "", err
	}
	defer face.Close()

	l := &pngLayout{
		c:     c,
		face:  face,
		lineH: float64(face.Metrics().Height.Ceil()),
		boxes: make(map[chart.ID]*pngBox),
	}
	root := l.measure(c.RootState(), 0)
	l.place(root, 0, 0)

	titleH := 0.0
	if opts.Title != "" {
		titleH = l.lineH + boxGap
	}
	pad := float64(opts.Padding)
	contentW := root.w + loopReach
	if opts.Width <= 0 {
		opts.Width = int(math.Ceil(contentW + 2*pad))
	}
	if opts.Height <= 0 {
		opts.Height = int(math.Ceil(root.h + titleH + 2*pad))
	}

	scale := math.Min((float64(opts.Width)-2*pad)/contentW, (float64(opts.Height)-2*pad-titleH)/root.h)
	if scale > 1 {
		scale = 1
	}
	if scale <= 0 {
		scale = 0.1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<defs>
  <marker id="arrowhead" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">
    <polygon points="0 0, 10 3.5, 0 7" fill="#666"/>
  </marker>
</defs>
<style>
  .composite { fill: #FFF4B3; stroke: #333; stroke-width: 1.5; }
  .normal { fill: #90EE90; stroke: #333; stroke-width: 1.5; }
  .pseudo { fill: #FFA07A; stroke: #333; stroke-width: 1.5; }
  .header { stroke: #666; stroke-width: 1; }
  .state-label { font-family: sans-serif; font-size: %dpx; fill: #333; text-anchor: middle; dominant-baseline: middle; }
  .transition { fill: none; stroke: #666; stroke-width: 1.5; marker-end: url(#arrowhead); }
  .trans-label { font-family: sans-serif; font-size: %dpx; fill: #333; text-anchor: middle; }
  .title { font-family: sans-serif; font-size: %dpx; font-weight: bold; text-anchor: middle; }
</style>
<rect width="%d" height="%d" fill="white"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.FontSize, max(opts.FontSize-2, 8), opts.FontSize+4, opts.Width, opts.Height)

	if opts.Title != "" {
		fmt.Fprintf(&sb, "<text x=\"%d\" y=\"%.1f\" class=\"title\">%s</text>\n",
			opts.Width/2, pad+l.lineH*0.75, html.EscapeString(opts.Title))
	}

	sb.WriteString(fmt.Sprintf("<g transform=\"translate(%.1f,%.1f) scale(%.4f)\">\n", pad, pad+titleH, scale))
	for _, b := range l.order {
		writeSVGBox(&sb, c, b)
	}
	for _, t := range c.Transitions() {
		src, ok := l.boxes[t.Src]
		if !ok {
			continue
		}
		dst, ok := l.boxes[t.Dst]
		if !ok {
			continue
		}
		label := ""
		if ev, ok := c.Event(t.Event); ok {
			label = ev.Name
		}
		writeSVGTransition(&sb, src, dst, label)
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String(), nil
}

// WriteSVG renders the chart and writes the document to w.
func WriteSVG(c *chart.Statechart, w io.Writer, opts SVGOptions) error {
	doc, err := GenerateSVG(c, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc)
	return err
}

func writeSVGBox(sb *strings.Builder, c *chart.Statechart, b *pngBox) {
	fmt.Fprintf(sb, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" rx=\"6\" class=\"%s\"/>\n",
		b.x, b.y, b.w, b.h, b.state.Kind)
	name := html.EscapeString(b.state.Name)
	cx := b.x + b.w/2
	if b.state.IsComposite() {
		hy := b.y + b.header
		fmt.Fprintf(sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" class=\"header\"/>\n", b.x, hy, b.x+b.w, hy)
		fmt.Fprintf(sb, "<text x=\"%.1f\" y=\"%.1f\" class=\"state-label\">%s</text>\n", cx, b.y+b.header/2, name)
	} else {
		fmt.Fprintf(sb, "<text x=\"%.1f\" y=\"%.1f\" class=\"state-label\">%s</text>\n", cx, b.y+b.h/2, name)
	}
	if b.state.ID != c.Root() && c.IsInitial(b.state.ID) {
		fmt.Fprintf(sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"#333\"/>\n", b.x+5, b.y+5)
	}
}

func writeSVGTransition(sb *strings.Builder, src, dst *pngBox, label string) {
	label = html.EscapeString(label)
	if src == dst {
		right := src.x + src.w
		_, cy := src.centre()
		fmt.Fprintf(sb, "<path d=\"M%.1f,%.1f Q%.1f,%.1f %.1f,%.1f\" class=\"transition\"/>\n",
			right, cy-src.h/4, right+loopReach, cy, right, cy+src.h/4)
		if label != "" {
			fmt.Fprintf(sb, "<text x=\"%.1f\" y=\"%.1f\" class=\"trans-label\">%s</text>\n", right+loopReach, cy, label)
		}
		return
	}

	scx, scy := src.centre()
	dcx, dcy := dst.centre()
	dx, dy := dcx-scx, dcy-scy
	dist := math.Hypot(dx, dy)
	if dist < 1 {
		return
	}
	nx, ny := dx/dist, dy/dist
	sx, sy := rectEdgePoint(scx, scy, src.w/2, src.h/2, nx, ny)
	ex, ey := rectEdgePoint(dcx, dcy, dst.w/2, dst.h/2, -nx, -ny)
	fmt.Fprintf(sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" class=\"transition\"/>\n", sx, sy, ex, ey)
	if label != "" {
		fmt.Fprintf(sb, "<text x=\"%.1f\" y=\"%.1f\" class=\"trans-label\">%s</text>\n", (sx+ex)/2, (sy+ey)/2-8, label)
	}
}
