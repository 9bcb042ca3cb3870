package tricolor

import (
	"image"
	"image/color"
)

// Planes are the three images derived from a dithered image.
type Planes struct {
	// Combined is the full tri-color preview.
	Combined *image.RGBA
	// Red is the red ink mask: black where red ink goes, white elsewhere.
	Red *image.RGBA
	// Black is the black ink mask: black where black or red was quantized.
	Black *image.RGBA
}

// planeMap maps a TriColor index to the index written in each plane.
var planeMap = [3]struct{ combined, red, black int }{
	Black: {combined: Black, red: White, black: Black},
	White: {combined: White, red: White, black: White},
	Red:   {combined: Red, red: Black, black: Black},
}

// SplitPlanes derives the combined, red and black planes from an image
// quantized to TriColor. Pixels that are not palette colors are copied
// unchanged to every plane. All planes are opaque, so encoding them drops the
// alpha channel. q is not modified.
func SplitPlanes(q image.Image) *Planes {
	p := TriColor
	b := q.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())
	planes := &Planes{
		Combined: image.NewRGBA(rect),
		Red:      image.NewRGBA(rect),
		Black:    image.NewRGBA(rect),
	}

	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			c := q.At(b.Min.X+x, b.Min.Y+y)
			ind, ok := p.Index(c)
			if !ok {
				nc := color.NRGBAModel.Convert(c).(color.NRGBA)
				raw := color.RGBA{R: nc.R, G: nc.G, B: nc.B, A: 255}
				planes.Combined.SetRGBA(x, y, raw)
				planes.Red.SetRGBA(x, y, raw)
				planes.Black.SetRGBA(x, y, raw)
				continue
			}

			m := planeMap[ind]
			planes.Combined.SetRGBA(x, y, p[m.combined])
			planes.Red.SetRGBA(x, y, p[m.red])
			planes.Black.SetRGBA(x, y, p[m.black])
		}
	}

	return planes
}

// Each calls fn for the combined, red and black planes in that order, with
// the plane name.
func (p *Planes) Each(fn func(name string, img *image.RGBA) error) error {
	for _, pl := range []struct {
		name string
		img  *image.RGBA
	}{
		{"combined", p.Combined},
		{"red", p.Red},
		{"black", p.Black},
	} {
		if err := fn(pl.name, pl.img); err != nil {
			return err
		}
	}
	return nil
}

// Plane returns the plane with the given name: "combined", "red" or "black".
func (p *Planes) Plane(name string) (*image.RGBA, bool) {
	switch name {
	case "combined", "":
		return p.Combined, true
	case "red":
		return p.Red, true
	case "black":
		return p.Black, true
	}
	return nil, false
}
