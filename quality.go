package tricolor

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Quality summarizes how a dithered image compares to its source.
type Quality struct {
	// MeanDeltaE is the mean CIE Lab distance between source and dithered
	// pixels.
	MeanDeltaE float64 `json:"meanDeltaE"`

	// Coverage is the fraction of dithered pixels per TriColor index.
	Coverage [3]float64 `json:"coverage"`
}

func toColorful(c color.Color) colorful.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return colorful.Color{
		R: float64(n.R) / 255.0,
		G: float64(n.G) / 255.0,
		B: float64(n.B) / 255.0,
	}
}

// Measure compares src with its dithered version over their common size.
// Both images are addressed relative to their own origin.
func Measure(src, dithered image.Image) Quality {
	var q Quality

	sb, db := src.Bounds(), dithered.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if db.Dx() < w {
		w = db.Dx()
	}
	if db.Dy() < h {
		h = db.Dy()
	}
	if w <= 0 || h <= 0 {
		return q
	}

	// Palette colors repeat constantly, so their Lab conversion is cached.
	labCache := make(map[color.NRGBA]colorful.Color, len(TriColor))

	var total float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dc := color.NRGBAModel.Convert(dithered.At(db.Min.X+x, db.Min.Y+y)).(color.NRGBA)
			dl, ok := labCache[dc]
			if !ok {
				dl = toColorful(dc)
				labCache[dc] = dl
			}

			total += toColorful(src.At(sb.Min.X+x, sb.Min.Y+y)).DistanceLab(dl)

			if ind, ok := TriColor.Index(dc); ok {
				q.Coverage[ind]++
			}
		}
	}

	n := float64(w * h)
	q.MeanDeltaE = total / n
	for i := range q.Coverage {
		q.Coverage[i] /= n
	}

	return q
}
