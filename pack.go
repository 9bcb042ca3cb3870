package tricolor

import (
	"fmt"
	"image"
	"image/color"
)

// Stride returns the number of bytes of a packed row of width pixels.
func Stride(width int) int {
	return (width + 7) / 8
}

// PackPlane packs a single ink plane into 1 bit per pixel, rows top to
// bottom, most significant bit first. A set bit is white (no ink); any pixel
// that is not white clears its bit. Row padding bits are set.
func PackPlane(img image.Image) []byte {
	b := img.Bounds()
	stride := Stride(b.Dx())
	out := make([]byte, stride*b.Dy())
	for i := range out {
		out[i] = 0xFF
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if r == 0xffff && g == 0xffff && bl == 0xffff {
				continue
			}
			out[y*stride+(x>>3)] &^= 0x80 >> (x & 7)
		}
	}

	return out
}

// UnpackPlane expands a packed plane back into a black and white image.
func UnpackPlane(data []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimensions %dx%d", ErrShape, width, height)
	}
	stride := Stride(width)
	if len(data) != stride*height {
		return nil, fmt.Errorf("%w: %d packed bytes for %dx%d pixels, want %d",
			ErrShape, len(data), width, height, stride*height)
	}

	white := TriColor[White]
	black := TriColor[Black]

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			if data[y*stride+(x>>3)]&(0x80>>(x&7)) != 0 {
				c = white
			} else {
				c = black
			}
			img.SetRGBA(x, y, c)
		}
	}

	return img, nil
}
