// Package tricolor converts images into the black, white and red planes used
// by tri-color e-paper panels and two-ink printers.
package tricolor

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette indexes of TriColor.
const (
	Black = iota
	White
	Red
)

// Palette is an ordered set of reference colors. The position of a color is
// its palette index.
type Palette []color.RGBA

// TriColor is the black, white and dark red palette of red/black panels.
var TriColor = MustPalette("#000000", "#ffffff", "#7f0000")

// NewPalette builds a palette from hex colors such as "#7f0000".
func NewPalette(hex ...string) (Palette, error) {
	p := make(Palette, 0, len(hex))
	for _, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, err
		}
		r, g, b := c.RGB255()
		p = append(p, color.RGBA{R: r, G: g, B: b, A: 255})
	}

	return p, nil
}

// MustPalette is like NewPalette but panics on an invalid color.
func MustPalette(hex ...string) Palette {
	p, err := NewPalette(hex...)
	if err != nil {
		panic("tricolor: MustPalette: " + err.Error())
	}
	return p
}

func sqDist(r, g, b float64, c color.RGBA) float64 {
	r -= float64(c.R)
	g -= float64(c.G)
	b -= float64(c.B)
	return r*r + g*g + b*b
}

// Nearest returns the index of the palette color closest to (r, g, b) by
// squared euclidean distance. Components are not clamped, so values carrying
// diffused error may fall outside [0, 255]. Ties resolve to the earliest
// entry. The palette must not be empty.
func (p Palette) Nearest(r, g, b float64) int {
	ind := 0
	best := sqDist(r, g, b, p[0])
	for i := 1; i < len(p); i++ {
		if d := sqDist(r, g, b, p[i]); d < best {
			best = d
			ind = i
		}
	}
	return ind
}

// Index returns the index of the palette entry whose RGB exactly matches c.
// Alpha is ignored.
func (p Palette) Index(c color.Color) (int, bool) {
	rgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	for i, pc := range p {
		if pc.R == rgba.R && pc.G == rgba.G && pc.B == rgba.B {
			return i, true
		}
	}
	return 0, false
}
