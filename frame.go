package tricolor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const (
	frameMagic   = "TRI"
	frameVersion = 1

	flagCompressed = 1 << 0
)

// ErrFrame is returned when reading a malformed frame.
var ErrFrame = errors.New("tricolor: invalid frame")

// Frame holds the packed black and red planes of a tri-color panel image.
type Frame struct {
	Width  int
	Height int

	// Black and Red are packed with PackPlane.
	Black []byte
	Red   []byte

	// Compressed selects zstd compression of the planes when writing.
	Compressed bool
}

// NewFrame packs the black and red planes.
func NewFrame(p *Planes) *Frame {
	b := p.Combined.Bounds()
	return &Frame{
		Width:  b.Dx(),
		Height: b.Dy(),
		Black:  PackPlane(p.Black),
		Red:    PackPlane(p.Red),
	}
}

// WriteTo writes the frame to a writer.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	if f.Width <= 0 || f.Height <= 0 || f.Width > 0xffff || f.Height > 0xffff {
		return 0, fmt.Errorf("%w: size %dx%d", ErrFrame, f.Width, f.Height)
	}
	size := Stride(f.Width) * f.Height
	if len(f.Black) != size || len(f.Red) != size {
		return 0, fmt.Errorf("%w: planes are %d and %d bytes, want %d",
			ErrFrame, len(f.Black), len(f.Red), size)
	}

	cw := &countWriter{w: w}
	wr := bufio.NewWriter(cw)

	var flags byte
	if f.Compressed {
		flags |= flagCompressed
	}

	wr.WriteString(frameMagic)
	wr.Write([]byte{frameVersion, flags})
	binary.Write(wr, binary.BigEndian, uint16(f.Width))
	binary.Write(wr, binary.BigEndian, uint16(f.Height))

	if f.Compressed {
		enc, err := zstd.NewWriter(wr)
		if err != nil {
			return cw.n, err
		}
		enc.Write(f.Black)
		enc.Write(f.Red)
		if err := enc.Close(); err != nil {
			return cw.n, err
		}
	} else {
		wr.Write(f.Black)
		wr.Write(f.Red)
	}

	err := wr.Flush()
	return cw.n, err
}

// ReadFrame reads a frame written by Frame.WriteTo.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [len(frameMagic) + 6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrFrame, err)
	}
	if string(header[:3]) != frameMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFrame, header[:3])
	}
	if header[3] != frameVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFrame, header[3])
	}

	f := &Frame{
		Compressed: header[4]&flagCompressed != 0,
		Width:      int(binary.BigEndian.Uint16(header[5:7])),
		Height:     int(binary.BigEndian.Uint16(header[7:9])),
	}
	if f.Width == 0 || f.Height == 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrFrame, f.Width, f.Height)
	}

	body := r
	if f.Compressed {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		body = dec
	}

	// The header is untrusted, so the buffer grows with the data actually
	// read instead of being sized from it.
	size := Stride(f.Width) * f.Height
	buf := new(bytes.Buffer)
	n, err := io.CopyN(buf, body, int64(2*size))
	if err != nil {
		return nil, fmt.Errorf("%w: planes: read %d of %d bytes: %v", ErrFrame, n, 2*size, err)
	}
	planes := buf.Bytes()
	f.Black = planes[:size:size]
	f.Red = planes[size:]

	return f, nil
}

// Bytes returns the encoded frame.
func (f *Frame) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
