package pngpnm

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
)

// decoder holds state for decoding one PNG stream.
type decoder struct {
	r    io.Reader
	opts Options

	hdr    *ImageHeader
	lay    layout
	stream *stream
	depth  int // output bytes per pixel
}

func newDecoder(r io.Reader, opts *Options) *decoder {
	return &decoder{r: r, opts: opts.withDefaults()}
}

// readHeader consumes the signature and IHDR, and sizes the scanline buffer.
func (d *decoder) readHeader() error {
	if err := checkSignature(d.r); err != nil {
		return err
	}

	c, err := readChunk(d.r, d.opts.MaxChunkSize)
	switch {
	case err == io.EOF:
		return fmt.Errorf("%w: missing IHDR chunk", ErrInvalidFormat)
	case errors.Is(err, ErrResourceExhausted), errors.Is(err, ErrInvalidFormat):
		return err
	case err != nil:
		return fmt.Errorf("%w: expected IHDR chunk: %w", ErrInvalidFormat, err)
	}
	if d.opts.VerifyChecksums {
		if err := c.verifyCRC(); err != nil {
			return err
		}
	}

	hdr, err := parseHeader(c)
	if err != nil {
		return err
	}
	if err := hdr.isSupported(); err != nil {
		return err
	}
	lay, err := hdr.layout(d.opts.MaxPixels)
	if err != nil {
		return err
	}
	d.hdr, d.lay = hdr, lay

	d.opts.Logger.Debug().
		Uint32("width", hdr.Width).
		Uint32("height", hdr.Height).
		Uint8("colorType", hdr.ColorType).
		Int("scanlineBytes", lay.size).
		Msg("parsed IHDR")
	return nil
}

// readChunks walks the remaining chunks and fixes the output depth.
func (d *decoder) readChunks() error {
	s, err := assemble(d.r, d.hdr, &d.opts)
	if err != nil {
		return err
	}
	d.stream = s
	d.depth = outputDepth(d.hdr, s.palette)
	return nil
}

// inflate decompresses the image data and releases the compressed buffer.
func (d *decoder) inflate() ([]byte, error) {
	pix, err := inflate(d.opts.Decompressor, d.stream.compressed, d.lay.size)
	d.stream.compressed = nil
	if err != nil {
		return nil, err
	}
	d.opts.Logger.Debug().Int("bytes", len(pix)).Msg("inflated image data")
	return pix, nil
}

// decode runs the whole pipeline after the header, streaming rows to the
// sink returned by newSink once the output depth is known.
func (d *decoder) decode(newSink func(depth int) (rowSink, error)) error {
	if err := d.readChunks(); err != nil {
		return err
	}
	pix, err := d.inflate()
	if err != nil {
		return err
	}
	sink, err := newSink(d.depth)
	if err != nil {
		return err
	}
	return reconstruct(pix, d.hdr, d.lay, d.stream.palette, d.depth, sink)
}

// Convert decodes the PNG read from r and writes it to w as binary PGM or
// PPM. Nothing written to w should be used if an error is returned.
func Convert(r io.Reader, w io.Writer, opts *Options) error {
	d := newDecoder(r, opts)
	if err := d.readHeader(); err != nil {
		return err
	}

	pw := newPNMWriter(w)
	err := d.decode(func(depth int) (rowSink, error) {
		return pw, pw.writeHeader(d.hdr.Width, d.hdr.Height, depth)
	})
	if err != nil {
		return err
	}
	return pw.flush()
}

// Decode decodes the PNG read from r. The result is an *image.Gray when
// the output is grayscale and an opaque *image.RGBA otherwise.
func Decode(r io.Reader, opts *Options) (image.Image, error) {
	d := newDecoder(r, opts)
	if err := d.readHeader(); err != nil {
		return nil, err
	}

	var sink *imageSink
	err := d.decode(func(depth int) (rowSink, error) {
		var err error
		sink, err = newImageSink(int(d.hdr.Width), int(d.hdr.Height), depth)
		return sink, err
	})
	if err != nil {
		return nil, err
	}
	return sink.img, nil
}

// DecodeConfig returns the dimensions and the color model Decode would
// produce. The whole chunk sequence is read, since an indexed image's color
// model depends on its palette, but image data is not inflated.
func DecodeConfig(r io.Reader, opts *Options) (image.Config, error) {
	d := newDecoder(r, opts)
	if err := d.readHeader(); err != nil {
		return image.Config{}, err
	}
	if err := d.readChunks(); err != nil {
		return image.Config{}, err
	}

	model := color.RGBAModel
	if d.depth == 1 {
		model = color.GrayModel
	}
	return image.Config{
		ColorModel: model,
		Width:      int(d.hdr.Width),
		Height:     int(d.hdr.Height),
	}, nil
}

// imageSink copies reconstructed rows into an image.Gray or image.RGBA.
type imageSink struct {
	img   image.Image
	pix   []byte
	y     int
	depth int
	width int
}

func newImageSink(width, height, depth int) (*imageSink, error) {
	s := &imageSink{depth: depth, width: width}
	rect := image.Rect(0, 0, width, height)
	if depth == 1 {
		pix, err := allocate(width * height)
		if err != nil {
			return nil, err
		}
		s.pix = pix
		s.img = &image.Gray{Pix: pix, Stride: width, Rect: rect}
	} else {
		if int64(width)*int64(height) > math.MaxInt/4 {
			return nil, fmt.Errorf("%w: %dx%d RGBA image overflows", ErrResourceExhausted, width, height)
		}
		pix, err := allocate(4 * width * height)
		if err != nil {
			return nil, err
		}
		s.pix = pix
		s.img = &image.RGBA{Pix: pix, Stride: 4 * width, Rect: rect}
	}
	return s, nil
}

func (s *imageSink) writeRow(row []byte) error {
	if s.depth == 1 {
		copy(s.pix[s.y*s.width:], row)
	} else {
		dst := s.pix[4*s.y*s.width:]
		for x := 0; x < s.width; x++ {
			dst[4*x+0] = row[3*x+0]
			dst[4*x+1] = row[3*x+1]
			dst[4*x+2] = row[3*x+2]
			dst[4*x+3] = 0xff
		}
	}
	s.y++
	return nil
}
