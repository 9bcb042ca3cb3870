package tricolor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"  // GIF decoder
	_ "image/jpeg" // JPEG decoder
	"image/png"    // PNG decoder and encoder

	_ "github.com/biessek/golang-ico" // ICO decoder
	_ "golang.org/x/image/bmp"        // BMP decoder
	_ "golang.org/x/image/tiff"       // TIFF decoder
	_ "golang.org/x/image/webp"       // WEBP decoder

	"github.com/disintegration/gift"
)

// DefaultMaxPixels is the largest image Decode accepts unless told otherwise.
const DefaultMaxPixels = 30000000

var (
	// ErrDecode wraps failures to read or decode an input image.
	ErrDecode = errors.New("tricolor: decode failed")

	// ErrEncode wraps failures to encode or write an output image.
	ErrEncode = errors.New("tricolor: encode failed")

	// ErrTooBig is returned for images with more pixels than allowed.
	ErrTooBig = errors.New("tricolor: image is too big")
)

// Decode reads an image of any registered format and returns it as RGBA8
// along with the detected format name. Images over maxPixels pixels are
// rejected before being decoded; maxPixels <= 0 uses DefaultMaxPixels.
func Decode(r io.Reader, maxPixels int) (*image.NRGBA, string, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	// The format and size come first, hence the two passes.
	var buf bytes.Buffer
	tee := io.TeeReader(r, &buf)

	c, format, err := image.DecodeConfig(tee)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return nil, format, fmt.Errorf("%w: %s image has no pixels", ErrDecode, format)
	}
	if c.Width*c.Height > maxPixels {
		return nil, format, fmt.Errorf("%w: %dx%d", ErrTooBig, c.Width, c.Height)
	}

	m, _, err := image.Decode(io.MultiReader(&buf, r))
	if err != nil {
		return nil, format, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}

	return ToNRGBA(m), format, nil
}

// Load decodes the image file at path.
func Load(path string, maxPixels int) (*image.NRGBA, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	return Decode(f, maxPixels)
}

// Fit scales img down to fit within width x height, keeping its aspect ratio.
// Images that already fit, and zero sizes, leave img untouched.
func Fit(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	if width <= 0 || height <= 0 || (b.Dx() <= width && b.Dy() <= height) {
		return img
	}

	g := gift.New(gift.ResizeToFit(width, height, gift.LanczosResampling))
	out := image.NewNRGBA(g.Bounds(b))
	g.Draw(out, img)
	return out
}

// EncodePNG writes img as a PNG. Opaque images are written without an alpha
// channel.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// SavePNG writes img as a PNG file at path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}
