// Native PNG preview of a chart: the state tree as nested boxes with
// transitions drawn as straight arrows between them.

package chartfile

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
)

// PNGOptions configures PNG rendering.
type PNGOptions struct {
	Width    int
	Height   int
	Padding  int
	FontSize int
	Title    string
}

// DefaultPNGOptions returns sensible defaults for PNG rendering.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Width:    800,
		Height:   600,
		Padding:  20,
		FontSize: 14,
	}
}

// Colors match the PlantUML skin so both previews read the same way.
var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorBlack     = color.RGBA{51, 51, 51, 255}   // #333
	colorGray      = color.RGBA{102, 102, 102, 255} // #666
	colorComposite = color.RGBA{255, 244, 179, 255} // pale #FFD700
	colorNormal    = color.RGBA{144, 238, 144, 255} // #90EE90
	colorPseudo    = color.RGBA{255, 160, 122, 255} // #FFA07A
)

// supersample is the factor the image is drawn at before downsampling.
const supersample = 4

const (
	boxPadX   = 12.0
	boxPadY   = 8.0
	boxGap    = 16.0
	headerPad = 6.0
	loopReach = 24.0
)

type pngBox struct {
	state      chart.State
	x, y, w, h float64
	header     float64
	horizontal bool
	kids       []*pngBox
}

func (b *pngBox) centre() (float64, float64) {
	return b.x + b.w/2, b.y + b.h/2
}

type pngLayout struct {
	c     *chart.Statechart
	face  font.Face
	lineH float64
	boxes map[chart.ID]*pngBox
	order []*pngBox
}

// renderContext holds the target image and the factor from layout units to
// pixels.
type renderContext struct {
	img       *image.RGBA
	scale     float64
	offX      float64
	offY      float64
	lineWidth float64
	face      font.Face
}

func (ctx *renderContext) px(x, y float64) (float64, float64) {
	return ctx.offX + x*ctx.scale, ctx.offY + y*ctx.scale
}

// RenderPNG renders a chart preview to PNG. The tree is laid out once at the
// nominal font size, shrunk to fit the canvas, drawn at four times the
// target size and downsampled.
func RenderPNG(c *chart.Statechart, w io.Writer, opts PNGOptions) error {
	def := DefaultPNGOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}

	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	baseFace, err := newFace(fnt, float64(opts.FontSize))
	if err != nil {
		return err
	}
	defer baseFace.Close()

	l := &pngLayout{
		c:     c,
		face:  baseFace,
		lineH: float64(baseFace.Metrics().Height.Ceil()),
		boxes: make(map[chart.ID]*pngBox),
	}
	root := l.measure(c.RootState(), 0)
	l.place(root, 0, 0)

	titleH := 0.0
	if opts.Title != "" {
		titleH = l.lineH + boxGap
	}

	availW := float64(opts.Width - 2*opts.Padding)
	availH := float64(opts.Height-2*opts.Padding) - titleH
	fit := math.Min(availW/(root.w+loopReach), availH/root.h)
	if fit > 1 {
		fit = 1
	}
	if fit <= 0 {
		fit = 0.1
	}

	scale := fit * supersample
	face, err := newFace(fnt, float64(opts.FontSize)*scale)
	if err != nil {
		return err
	}
	defer face.Close()

	large := image.NewRGBA(image.Rect(0, 0, opts.Width*supersample, opts.Height*supersample))
	draw.Draw(large, large.Bounds(), image.NewUniform(colorWhite), image.Point{}, draw.Src)

	ctx := &renderContext{
		img:       large,
		scale:     scale,
		offX:      float64(opts.Padding * supersample),
		offY:      float64(opts.Padding*supersample) + titleH*scale,
		lineWidth: math.Max(supersample*1.5, 1),
		face:      face,
	}

	if opts.Title != "" {
		drawTextCentered(ctx, large.Bounds().Dx()/2, int(float64(opts.Padding*supersample)+l.lineH*scale/2), opts.Title, colorBlack)
	}

	for _, b := range l.order {
		drawStateBox(ctx, c, b)
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
		drawTransitionArrow(ctx, src, dst, label)
	}

	final := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)
	return png.Encode(w, final)
}

func newFace(fnt *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// measure sizes a state box and its descendants. Composites alternate
// between laying out their children in a row and in a column by depth.
func (l *pngLayout) measure(s chart.State, depth int) *pngBox {
	b := &pngBox{state: s}
	l.boxes[s.ID] = b
	l.order = append(l.order, b)

	textW := float64(font.MeasureString(l.face, s.Name).Ceil())
	if !s.IsComposite() {
		b.w = textW + 2*boxPadX
		b.h = l.lineH + 2*boxPadY
		return b
	}

	b.header = l.lineH + 2*headerPad
	b.horizontal = depth%2 == 0
	var cw, ch float64
	for _, cid := range s.Children {
		child, ok := l.c.State(cid)
		if !ok {
			continue
		}
		kb := l.measure(child, depth+1)
		b.kids = append(b.kids, kb)
		if b.horizontal {
			cw += kb.w
			ch = max(ch, kb.h)
		} else {
			ch += kb.h
			cw = max(cw, kb.w)
		}
	}
	if n := len(b.kids); n > 1 {
		gaps := float64(n-1) * boxGap
		if b.horizontal {
			cw += gaps
		} else {
			ch += gaps
		}
	}
	b.w = max(cw+2*boxGap, textW+2*boxPadX)
	b.h = b.header + ch + boxGap
	return b
}

func (l *pngLayout) place(b *pngBox, x, y float64) {
	b.x, b.y = x, y
	cx, cy := x+boxGap, y+b.header
	for _, kb := range b.kids {
		l.place(kb, cx, cy)
		if b.horizontal {
			cx += kb.w + boxGap
		} else {
			cy += kb.h + boxGap
		}
	}
}

func kindColor(k chart.Kind) color.Color {
	switch k {
	case chart.KindComposite:
		return colorComposite
	case chart.KindPseudo:
		return colorPseudo
	}
	return colorNormal
}

func drawStateBox(ctx *renderContext, c *chart.Statechart, b *pngBox) {
	x1, y1 := ctx.px(b.x, b.y)
	x2, y2 := ctx.px(b.x+b.w, b.y+b.h)
	radius := 6 * ctx.scale

	fillRoundRect(ctx, x1, y1, x2, y2, radius, kindColor(b.state.Kind))
	strokeRoundRect(ctx, x1, y1, x2, y2, radius, colorBlack)

	if b.state.IsComposite() {
		_, hy := ctx.px(0, b.y+b.header)
		drawLine(ctx, x1, hy, x2, hy, colorGray)
		drawTextCentered(ctx, int((x1+x2)/2), int((y1+hy)/2), b.state.Name, colorBlack)
	} else {
		drawTextCentered(ctx, int((x1+x2)/2), int((y1+y2)/2), b.state.Name, colorBlack)
	}

	if b.state.ID != c.Root() && c.IsInitial(b.state.ID) {
		r := 3 * ctx.scale
		fillCircle(ctx, x1+r+2*ctx.scale, y1+r+2*ctx.scale, r, colorBlack)
	}
}

// drawTransitionArrow joins two boxes border to border. A self transition
// becomes a loop on the right side of the box.
func drawTransitionArrow(ctx *renderContext, src, dst *pngBox, label string) {
	if src == dst {
		right := src.x + src.w
		_, cy := src.centre()
		sx, sy := ctx.px(right, cy-src.h/4)
		qx, qy := ctx.px(right+loopReach, cy)
		ex, ey := ctx.px(right, cy+src.h/4)
		drawQuadBezierArrow(ctx, sx, sy, qx, qy, ex, ey, colorGray)
		if label != "" {
			drawTextCentered(ctx, int(qx), int(qy), label, colorBlack)
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

	px1, py1 := ctx.px(sx, sy)
	px2, py2 := ctx.px(ex, ey)
	drawArrowLine(ctx, px1, py1, px2, py2, colorGray)
	if label != "" {
		drawTextCentered(ctx, int((px1+px2)/2), int((py1+py2)/2-8*ctx.scale), label, colorBlack)
	}
}

// rectEdgePoint returns where a ray from the centre of a rectangle in
// direction (nx, ny) leaves it.
func rectEdgePoint(cx, cy, hw, hh, nx, ny float64) (float64, float64) {
	t := math.Inf(1)
	if nx != 0 {
		t = math.Min(t, hw/math.Abs(nx))
	}
	if ny != 0 {
		t = math.Min(t, hh/math.Abs(ny))
	}
	if math.IsInf(t, 1) {
		return cx, cy
	}
	return cx + nx*t, cy + ny*t
}

func insideRoundRect(x, y, x1, y1, x2, y2, r float64) bool {
	if x < x1 || x > x2 || y < y1 || y > y2 {
		return false
	}
	cx := math.Max(x1+r, math.Min(x, x2-r))
	cy := math.Max(y1+r, math.Min(y, y2-r))
	return math.Hypot(x-cx, y-cy) <= r
}

func fillRoundRect(ctx *renderContext, x1, y1, x2, y2, r float64, c color.Color) {
	for y := math.Floor(y1); y <= y2; y++ {
		for x := math.Floor(x1); x <= x2; x++ {
			if insideRoundRect(x, y, x1, y1, x2, y2, r) {
				ctx.img.Set(int(x), int(y), c)
			}
		}
	}
}

func strokeRoundRect(ctx *renderContext, x1, y1, x2, y2, r float64, c color.Color) {
	drawLine(ctx, x1+r, y1, x2-r, y1, c)
	drawLine(ctx, x1+r, y2, x2-r, y2, c)
	drawLine(ctx, x1, y1+r, x1, y2-r, c)
	drawLine(ctx, x2, y1+r, x2, y2-r, c)
	drawArc(ctx, x2-r, y1+r, r, -math.Pi/2, 0, c)
	drawArc(ctx, x2-r, y2-r, r, 0, math.Pi/2, c)
	drawArc(ctx, x1+r, y2-r, r, math.Pi/2, math.Pi, c)
	drawArc(ctx, x1+r, y1+r, r, math.Pi, 3*math.Pi/2, c)
}

func drawArc(ctx *renderContext, cx, cy, r, from, to float64, c color.Color) {
	step := 1 / math.Max(r, 1)
	for a := from; a <= to; a += step {
		nx, ny := math.Cos(a), math.Sin(a)
		for t := -ctx.lineWidth / 2; t <= ctx.lineWidth/2; t += 0.5 {
			ctx.img.Set(int(cx+nx*(r+t)), int(cy+ny*(r+t)), c)
		}
	}
}

func fillCircle(ctx *renderContext, cx, cy, r float64, c color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				ctx.img.Set(int(cx+dx), int(cy+dy), c)
			}
		}
	}
}

// drawLine draws a line between two points with thickness from context.
func drawLine(ctx *renderContext, x1, y1, x2, y2 float64, c color.Color) {
	img := ctx.img
	halfThick := ctx.lineWidth / 2

	dx := x2 - x1
	dy := y2 - y1
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	if steps < 1 {
		steps = 1
	}

	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		for ty := -halfThick; ty <= halfThick; ty++ {
			for tx := -halfThick; tx <= halfThick; tx++ {
				img.Set(int(x1+tx), int(y1+ty), c)
			}
		}
		return
	}

	perpX := -dy / dist
	perpY := dx / dist

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			img.Set(int(cx+perpX*offset), int(cy+perpY*offset), c)
		}
	}
}

// drawArrowHead fills a head at (x2, y2) pointing along (nx, ny).
func drawArrowHead(ctx *renderContext, x2, y2, nx, ny float64, c color.Color) {
	arrowLen := 8.0 * ctx.scale
	arrowWidth := 4.0 * ctx.scale

	ax1 := x2 - nx*arrowLen + ny*arrowWidth
	ay1 := y2 - ny*arrowLen - nx*arrowWidth
	ax2 := x2 - nx*arrowLen - ny*arrowWidth
	ay2 := y2 - ny*arrowLen + nx*arrowWidth

	for t := 0.0; t <= 1.0; t += 0.05 {
		mx := ax1 + (ax2-ax1)*t
		my := ay1 + (ay2-ay1)*t
		drawLine(ctx, x2, y2, mx, my, c)
	}
}

func drawArrowLine(ctx *renderContext, x1, y1, x2, y2 float64, c color.Color) {
	drawLine(ctx, x1, y1, x2, y2, c)
	dx, dy := x2-x1, y2-y1
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		return
	}
	drawArrowHead(ctx, x2, y2, dx/dist, dy/dist, c)
}

func drawQuadBezierArrow(ctx *renderContext, x1, y1, cx, cy, x2, y2 float64, c color.Color) {
	const steps = 60.0
	prevX, prevY := x1, y1
	for i := 1.0; i <= steps; i++ {
		t := i / steps
		x := (1-t)*(1-t)*x1 + 2*(1-t)*t*cx + t*t*x2
		y := (1-t)*(1-t)*y1 + 2*(1-t)*t*cy + t*t*y2
		drawLine(ctx, prevX, prevY, x, y, c)
		prevX, prevY = x, y
	}

	tx, ty := x2-cx, y2-cy
	dist := math.Sqrt(tx*tx + ty*ty)
	if dist < 1 {
		return
	}
	drawArrowHead(ctx, x2, y2, tx/dist, ty/dist, c)
}

// drawTextCentered draws text centred on (x, y) in the Go Regular face.
func drawTextCentered(ctx *renderContext, x, y int, text string, c color.Color) {
	width := font.MeasureString(ctx.face, text).Ceil()
	ascent := ctx.face.Metrics().Ascent.Ceil()

	d := &font.Drawer{
		Dst:  ctx.img,
		Src:  image.NewUniform(c),
		Face: ctx.face,
		Dot: fixed.Point26_6{
			X: fixed.I(x - width/2),
			Y: fixed.I(y + int(float64(ascent)*0.35)),
		},
	}
	d.DrawString(text)
}
