package tricolor

import (
	"context"
	"fmt"
	"image"
	"image/color"
)

// errVec is the quantization error owed to a pixel, per RGB channel.
type errVec [3]float64

// tap is one error diffusion target relative to the current pixel. next
// selects the row below instead of the current row. weight is in 32nds of the
// residual.
type tap struct {
	dx     int
	next   bool
	weight float64
}

// The weights add up to 16/32 in every branch, so only half of the residual
// is carried forward.
var (
	leftEdgeTaps = []tap{
		{dx: 0, next: true, weight: 7},
		{dx: 1, next: true, weight: 2},
		{dx: 1, next: false, weight: 7},
	}
	rightEdgeTaps = []tap{
		{dx: -1, next: true, weight: 7},
		{dx: 0, next: true, weight: 9},
	}
	interiorTaps = []tap{
		{dx: -1, next: true, weight: 3},
		{dx: 0, next: true, weight: 5},
		{dx: 1, next: true, weight: 1},
		{dx: 1, next: false, weight: 7},
	}
)

// tapsFor returns the diffusion taps of column i in a row of width w. The left
// edge wins when w is 1.
func tapsFor(i, w int) []tap {
	switch {
	case i == 0:
		return leftEdgeTaps
	case i == w-1:
		return rightEdgeTaps
	default:
		return interiorTaps
	}
}

// Ditherer reduces images to a palette with error diffusion.
type Ditherer struct {
	// Palette to quantize to. TriColor is used when nil.
	Palette Palette

	// Window is the source region to dither, in source coordinates. The
	// output has the size of the window with its origin at (0, 0). Positions
	// of the window that fall outside of the source get a black and white
	// checkerboard. The full source is used when the window is empty.
	Window image.Rectangle

	// Progress, if set, is called after each output row.
	Progress func(done, total int)
}

// Dither dithers src with the TriColor palette.
func Dither(src *image.NRGBA) (*image.NRGBA, error) {
	return new(Ditherer).Dither(context.Background(), src)
}

// Dither quantizes src to the palette and returns a new image in which every
// pixel is a palette color with full opacity. The pass is sequential; ctx is
// only checked between rows.
func (d *Ditherer) Dither(ctx context.Context, src *image.NRGBA) (*image.NRGBA, error) {
	pal := d.Palette
	if pal == nil {
		pal = TriColor
	}
	if len(pal) == 0 {
		return nil, ErrEmptyPalette
	}
	if err := checkShape(src); err != nil {
		return nil, err
	}

	sb := src.Bounds()
	win := d.Window
	if win.Empty() {
		win = sb
	}

	dw, dh := win.Dx(), win.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))

	var rows [2][]errVec
	rows[0] = make([]errVec, dw)
	rows[1] = make([]errVec, dw)
	cur, next := 0, 1

	for j := 0; j < dh; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		y := win.Min.Y + j
		if y < sb.Min.Y || y >= sb.Max.Y {
			for i := 0; i < dw; i++ {
				setIndex(dst, pal, i, j, checker(i, j))
			}
			d.progress(j, dh)
			continue
		}

		cur, next = next, cur
		for i := range rows[next] {
			rows[next][i] = errVec{}
		}

		for i := 0; i < dw; i++ {
			x := win.Min.X + i
			if x < sb.Min.X || x >= sb.Max.X {
				setIndex(dst, pal, i, j, checker(i, j))
				continue
			}

			off := src.PixOffset(x, y)
			old := rows[cur][i]
			r := float64(src.Pix[off]) + old[0]
			g := float64(src.Pix[off+1]) + old[1]
			b := float64(src.Pix[off+2]) + old[2]

			ind := pal.Nearest(r, g, b)
			col := setIndex(dst, pal, i, j, ind)

			diffuse(rows[cur], rows[next], i,
				errVec{r - float64(col.R), g - float64(col.G), b - float64(col.B)})
		}

		d.progress(j, dh)
	}

	return dst, nil
}

// diffuse spreads the residual of column i over the pixels not visited yet.
// Targets outside of the row are dropped.
func diffuse(cur, next []errVec, i int, res errVec) {
	w := len(cur)
	for _, t := range tapsFor(i, w) {
		k := i + t.dx
		if k < 0 || k >= w {
			continue
		}
		row := cur
		if t.next {
			row = next
		}
		row[k].add(res, t.weight)
	}
}

func (d *Ditherer) progress(j, total int) {
	if d.Progress != nil {
		d.Progress(j+1, total)
	}
}

func (e *errVec) add(res errVec, weight float64) {
	e[0] += (res[0] * weight) / 32
	e[1] += (res[1] * weight) / 32
	e[2] += (res[2] * weight) / 32
}

// checker returns the checkerboard palette index used outside of the source.
func checker(i, j int) int {
	if (i+j)%2 == 0 {
		return White
	}
	return Black
}

func setIndex(dst *image.NRGBA, pal Palette, i, j, ind int) color.RGBA {
	if ind < 0 || ind >= len(pal) {
		panic(fmt.Sprintf("tricolor: palette index %d out of range [0, %d)", ind, len(pal)))
	}
	col := pal[ind]
	off := dst.PixOffset(i, j)
	dst.Pix[off] = col.R
	dst.Pix[off+1] = col.G
	dst.Pix[off+2] = col.B
	dst.Pix[off+3] = 255
	return col
}
