package tricolor

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

var (
	// ErrShape is returned when a pixel buffer does not match its claimed
	// dimensions.
	ErrShape = errors.New("tricolor: invalid pixel buffer shape")

	// ErrEmptyPalette is returned when dithering against a palette with no
	// colors.
	ErrEmptyPalette = errors.New("tricolor: empty palette")
)

// FromPix copies a row-major RGBA8 byte sequence of w*h pixels into a new
// image.
func FromPix(pix []byte, w, h int) (*image.NRGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimensions %dx%d", ErrShape, w, h)
	}
	if len(pix) != w*h*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d pixels, want %d",
			ErrShape, len(pix), w, h, w*h*4)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return img, nil
}

// Pix returns the pixels of img as a tightly packed, row-major RGBA8 byte
// sequence.
func Pix(img *image.NRGBA) []byte {
	b := img.Bounds()
	rowLen := b.Dx() * 4
	out := make([]byte, 0, rowLen*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[off:off+rowLen]...)
	}
	return out
}

// ToNRGBA converts any image to a non-premultiplied RGBA8 image whose bounds
// start at the origin. An *image.NRGBA already in that form is returned as is.
func ToNRGBA(img image.Image) *image.NRGBA {
	if m, ok := img.(*image.NRGBA); ok && m.Bounds().Min == (image.Point{}) &&
		m.Stride == m.Bounds().Dx()*4 {
		return m
	}

	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func checkShape(img *image.NRGBA) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrShape)
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: non-positive dimensions %dx%d", ErrShape, w, h)
	}
	if img.Stride < w*4 || len(img.Pix) < (h-1)*img.Stride+w*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d pixels", ErrShape,
			len(img.Pix), w, h)
	}
	return nil
}
