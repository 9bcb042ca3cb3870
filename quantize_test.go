package tricolor

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImage(w, h int, pixels ...color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, c := range pixels {
		img.SetNRGBA(i%w, i/w, c)
	}
	return img
}

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func gray(v uint8) color.NRGBA {
	return color.NRGBA{v, v, v, 255}
}

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{r, g, b, 255}
}

func noiseImage(w, h int, seed int64) *image.NRGBA {
	rnd := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rnd.Read(img.Pix)
	return img
}

func indexAt(t *testing.T, img image.Image, x, y int) int {
	t.Helper()
	ind, ok := TriColor.Index(img.At(x, y))
	require.True(t, ok, "pixel (%d, %d) = %v is not a palette color", x, y, img.At(x, y))
	return ind
}

func TestTapWeights(t *testing.T) {
	tests := []struct {
		name string
		taps []tap
	}{
		{"left edge", leftEdgeTaps},
		{"right edge", rightEdgeTaps},
		{"interior", interiorTaps},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sum float64
			for _, tp := range tt.taps {
				sum += tp.weight
			}
			assert.Equal(t, 16.0, sum)
		})
	}
}

func TestTapsFor(t *testing.T) {
	assert.Equal(t, leftEdgeTaps, tapsFor(0, 1))
	assert.Equal(t, leftEdgeTaps, tapsFor(0, 5))
	assert.Equal(t, rightEdgeTaps, tapsFor(4, 5))
	assert.Equal(t, interiorTaps, tapsFor(2, 5))
	assert.Equal(t, rightEdgeTaps, tapsFor(1, 2))
}

func TestDiffuse(t *testing.T) {
	res := errVec{32, -64, 3.2}

	t.Run("left edge", func(t *testing.T) {
		cur := make([]errVec, 3)
		next := make([]errVec, 3)
		diffuse(cur, next, 0, res)

		assert.Equal(t, errVec{}, cur[0])
		assert.InDeltaSlice(t, []float64{7, -14, 0.7}, cur[1][:], 1e-9)
		assert.Equal(t, errVec{}, cur[2])
		assert.InDeltaSlice(t, []float64{7, -14, 0.7}, next[0][:], 1e-9)
		assert.InDeltaSlice(t, []float64{2, -4, 0.2}, next[1][:], 1e-9)
		assert.Equal(t, errVec{}, next[2])
	})

	t.Run("interior", func(t *testing.T) {
		cur := make([]errVec, 3)
		next := make([]errVec, 3)
		diffuse(cur, next, 1, res)

		assert.Equal(t, errVec{}, cur[0])
		assert.Equal(t, errVec{}, cur[1])
		assert.InDeltaSlice(t, []float64{7, -14, 0.7}, cur[2][:], 1e-9)
		assert.InDeltaSlice(t, []float64{3, -6, 0.3}, next[0][:], 1e-9)
		assert.InDeltaSlice(t, []float64{5, -10, 0.5}, next[1][:], 1e-9)
		assert.InDeltaSlice(t, []float64{1, -2, 0.1}, next[2][:], 1e-9)
	})

	t.Run("right edge", func(t *testing.T) {
		cur := make([]errVec, 3)
		next := make([]errVec, 3)
		diffuse(cur, next, 2, res)

		assert.Equal(t, make([]errVec, 3), cur)
		assert.Equal(t, errVec{}, next[0])
		assert.InDeltaSlice(t, []float64{7, -14, 0.7}, next[1][:], 1e-9)
		assert.InDeltaSlice(t, []float64{9, -18, 0.9}, next[2][:], 1e-9)
	})

	t.Run("single column drops off-grid targets", func(t *testing.T) {
		cur := make([]errVec, 1)
		next := make([]errVec, 1)
		diffuse(cur, next, 0, res)

		assert.Equal(t, errVec{}, cur[0])
		assert.InDeltaSlice(t, []float64{7, -14, 0.7}, next[0][:], 1e-9)
	})

	t.Run("accumulates", func(t *testing.T) {
		cur := make([]errVec, 3)
		next := make([]errVec, 3)
		diffuse(cur, next, 1, res)
		diffuse(cur, next, 1, res)

		assert.InDeltaSlice(t, []float64{14, -28, 1.4}, cur[2][:], 1e-9)
	})
}

func TestDitherScenario(t *testing.T) {
	src := newImage(2, 2,
		gray(255), gray(0),
		rgb(127, 0, 0), rgb(200, 10, 10),
	)

	out, err := Dither(src)
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), out.Bounds())

	assert.Equal(t, White, indexAt(t, out, 0, 0))
	assert.Equal(t, Black, indexAt(t, out, 1, 0))
	assert.Equal(t, Red, indexAt(t, out, 0, 1))
	assert.Equal(t, Red, indexAt(t, out, 1, 1))

	planes := SplitPlanes(out)
	expect := []struct {
		x, y                 int
		combined, red, black int
	}{
		{0, 0, White, White, White},
		{1, 0, Black, White, Black},
		{0, 1, Red, Black, Black},
		{1, 1, Red, Black, Black},
	}
	for _, e := range expect {
		assert.Equal(t, e.combined, indexAt(t, planes.Combined, e.x, e.y))
		assert.Equal(t, e.red, indexAt(t, planes.Red, e.x, e.y))
		assert.Equal(t, e.black, indexAt(t, planes.Black, e.x, e.y))
	}
}

func TestDitherCarriesErrorRight(t *testing.T) {
	// (66, 0, 0) alone is closer to dark red, but the 7/32 of the residual
	// of (100, 100, 100) pushes it to black.
	alone, err := Dither(newImage(1, 1, rgb(66, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, Red, indexAt(t, alone, 0, 0))

	out, err := Dither(newImage(2, 1, gray(100), rgb(66, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, Red, indexAt(t, out, 0, 0))
	assert.Equal(t, Black, indexAt(t, out, 1, 0))
}

func TestDitherCarriesErrorDown(t *testing.T) {
	out, err := Dither(newImage(1, 2, gray(100), rgb(66, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, Red, indexAt(t, out, 0, 0))
	assert.Equal(t, Black, indexAt(t, out, 0, 1))

	// A white row in between absorbs the error.
	out, err = Dither(newImage(1, 3, gray(100), gray(255), rgb(66, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, White, indexAt(t, out, 0, 1))
	assert.Equal(t, Red, indexAt(t, out, 0, 2))
}

func TestDitherDeterministic(t *testing.T) {
	src := noiseImage(37, 23, 1)

	a, err := Dither(src)
	require.NoError(t, err)
	b, err := Dither(src)
	require.NoError(t, err)

	assert.Equal(t, a.Pix, b.Pix)
}

func TestDitherPaletteClosure(t *testing.T) {
	src := noiseImage(64, 48, 2)

	out, err := Dither(src)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), out.Bounds())

	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			c := out.NRGBAAt(x, y)
			assert.EqualValues(t, 255, c.A)
			_, ok := TriColor.Index(c)
			assert.True(t, ok, "pixel (%d, %d) = %v", x, y, c)
		}
	}
}

func TestDitherIgnoresAlpha(t *testing.T) {
	opaque := noiseImage(16, 16, 3)
	transparent := image.NewNRGBA(opaque.Bounds())
	copy(transparent.Pix, opaque.Pix)
	for i := 3; i < len(transparent.Pix); i += 4 {
		transparent.Pix[i] = 0
	}

	a, err := Dither(opaque)
	require.NoError(t, err)
	b, err := Dither(transparent)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestDitherSubImage(t *testing.T) {
	src := noiseImage(20, 20, 4)
	sub := src.SubImage(image.Rect(5, 5, 15, 12)).(*image.NRGBA)

	out, err := Dither(sub)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 7), out.Bounds())

	flat, err := FromPix(Pix(sub), 10, 7)
	require.NoError(t, err)
	expect, err := Dither(flat)
	require.NoError(t, err)
	assert.Equal(t, expect.Pix, out.Pix)
}

func TestDitherCheckerboard(t *testing.T) {
	src := newImage(2, 2, gray(0), gray(0), gray(0), gray(0))

	d := &Ditherer{Window: image.Rect(-1, -1, 3, 3)}
	out, err := d.Dither(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())

	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			inside := i >= 1 && i <= 2 && j >= 1 && j <= 2
			got := indexAt(t, out, i, j)
			switch {
			case inside:
				assert.Equal(t, Black, got, "(%d, %d)", i, j)
			case (i+j)%2 == 0:
				assert.Equal(t, White, got, "(%d, %d)", i, j)
			default:
				assert.Equal(t, Black, got, "(%d, %d)", i, j)
			}
		}
	}
}

func TestDitherOutOfSourceRowsKeepErrorState(t *testing.T) {
	src := noiseImage(9, 6, 5)

	plain, err := Dither(src)
	require.NoError(t, err)

	// Rows outside of the source leave the error rows untouched, so the
	// source rows dither exactly as without a window.
	d := &Ditherer{Window: image.Rect(0, -2, 9, 8)}
	out, err := d.Dither(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 9, 10), out.Bounds())

	for y := 0; y < 6; y++ {
		for x := 0; x < 9; x++ {
			assert.Equal(t, plain.NRGBAAt(x, y), out.NRGBAAt(x, y+2), "(%d, %d)", x, y)
		}
	}
	for _, j := range []int{0, 1, 8, 9} {
		for i := 0; i < 9; i++ {
			assert.Equal(t, checker(i, j), indexAt(t, out, i, j))
		}
	}
}

func TestDitherProgress(t *testing.T) {
	var calls [][2]int
	d := &Ditherer{Progress: func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}}

	_, err := d.Dither(context.Background(), noiseImage(3, 4, 6))
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, calls)
}

func TestDitherCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := new(Ditherer).Dither(ctx, noiseImage(3, 3, 7))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDitherErrors(t *testing.T) {
	_, err := Dither(nil)
	assert.ErrorIs(t, err, ErrShape)

	_, err = Dither(image.NewNRGBA(image.Rect(0, 0, 0, 3)))
	assert.ErrorIs(t, err, ErrShape)

	broken := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	broken.Pix = broken.Pix[:10]
	_, err = Dither(broken)
	assert.ErrorIs(t, err, ErrShape)

	d := &Ditherer{Palette: Palette{}}
	_, err = d.Dither(context.Background(), noiseImage(2, 2, 8))
	assert.ErrorIs(t, err, ErrEmptyPalette)
}

func TestDitherCustomPalette(t *testing.T) {
	d := &Ditherer{Palette: MustPalette("#000000", "#ffffff")}
	out, err := d.Dither(context.Background(), newImage(2, 1, rgb(127, 0, 0), gray(250)))
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(1, 0))
}
