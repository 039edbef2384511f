package pngpnm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Color type, as defined by PNG.
const (
	ctGrayscale      = 0
	ctTrueColor      = 2
	ctPaletted       = 3
	ctGrayscaleAlpha = 4
	ctTrueColorAlpha = 6
)

// Interlace method.
const (
	itNone  = 0
	itAdam7 = 1
)

const ihdrLength = 13

// maxDimension is the PNG limit on width and height (2^31-1).
const maxDimension = 0x7fffffff

// ImageHeader is the decoded IHDR chunk.
type ImageHeader struct {
	Width       uint32
	Height      uint32
	BitDepth    uint8
	ColorType   uint8
	Compression uint8 // compression method, must be 0
	Filter      uint8 // filter method, must be 0
	Interlace   uint8
}

// parseHeader decodes the IHDR chunk and checks the fields every
// conforming PNG must satisfy. Feature support is checked separately by
// isSupported.
func parseHeader(c *chunk) (*ImageHeader, error) {
	if c.typ != chunkIHDR {
		return nil, fmt.Errorf("%w: first chunk is %s, want IHDR", ErrInvalidFormat, c.typ)
	}
	if len(c.data) != ihdrLength {
		return nil, fmt.Errorf("%w: IHDR length %d, want %d", ErrInvalidFormat, len(c.data), ihdrLength)
	}

	d := c.data
	h := &ImageHeader{
		Width:       binary.BigEndian.Uint32(d[0:4]),
		Height:      binary.BigEndian.Uint32(d[4:8]),
		BitDepth:    d[8],
		ColorType:   d[9],
		Compression: d[10],
		Filter:      d[11],
		Interlace:   d[12],
	}

	if h.Width == 0 || h.Height == 0 {
		return nil, fmt.Errorf("%w: non-positive dimension %dx%d", ErrInvalidFormat, h.Width, h.Height)
	}
	if h.Width > maxDimension || h.Height > maxDimension {
		return nil, fmt.Errorf("%w: dimension %dx%d exceeds 2^31-1", ErrInvalidFormat, h.Width, h.Height)
	}
	// Compression and filter method together form the reserved field.
	if h.Compression != 0 || h.Filter != 0 {
		return nil, fmt.Errorf("%w: reserved IHDR field is %d/%d, want 0/0",
			ErrInvalidFormat, h.Compression, h.Filter)
	}

	return h, nil
}

// isSupported rejects well-formed headers that use features outside the
// decoded subset.
func (h *ImageHeader) isSupported() error {
	if h.Interlace != itNone {
		return fmt.Errorf("%w: interlace method %d", ErrUnsupported, h.Interlace)
	}
	if h.BitDepth != 8 {
		return fmt.Errorf("%w: bit depth %d", ErrUnsupported, h.BitDepth)
	}
	switch h.ColorType {
	case ctGrayscale, ctTrueColor, ctPaletted:
		return nil
	default:
		return fmt.Errorf("%w: color type %d", ErrUnsupported, h.ColorType)
	}
}

// bytesPerSample is the number of filtered bytes per pixel.
func (h *ImageHeader) bytesPerSample() int {
	if h.ColorType == ctTrueColor {
		return 3
	}
	return 1
}

// layout describes the inflated scanline buffer.
type layout struct {
	stride  int // sample bytes per row, excluding the filter byte
	rowSize int // stride + 1
	size    int // height * rowSize
}

// layout computes buffer sizes from the header, rejecting images larger
// than maxPixels and sizes that overflow int.
func (h *ImageHeader) layout(maxPixels int64) (layout, error) {
	pixels := uint64(h.Width) * uint64(h.Height)
	if maxPixels < 0 || pixels > uint64(maxPixels) {
		return layout{}, fmt.Errorf("%w: %dx%d image exceeds %d pixels",
			ErrResourceExhausted, h.Width, h.Height, maxPixels)
	}

	stride := int64(h.Width) * int64(h.bytesPerSample())
	rowSize := stride + 1
	height := int64(h.Height)
	if rowSize > math.MaxInt || rowSize > math.MaxInt/height {
		return layout{}, fmt.Errorf("%w: %dx%d image size overflows",
			ErrResourceExhausted, h.Width, h.Height)
	}

	return layout{
		stride:  int(stride),
		rowSize: int(rowSize),
		size:    int(rowSize * height),
	}, nil
}
