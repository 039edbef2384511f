package pngpnm

import (
	"errors"
	"fmt"
	"io"
)

// stream is what the chunk sequence after IHDR contributes to decoding.
type stream struct {
	palette    Palette
	hasPalette bool
	compressed []byte // concatenated IDAT payloads, in arrival order
	skipped    int    // ancillary or unknown chunks ignored
}

// assemble reads chunks up to and including IEND. PLTE is captured once,
// IDAT payloads are concatenated, and all other chunks are skipped. Running
// out of input before IEND is a format error.
func assemble(r io.Reader, hdr *ImageHeader, opts *Options) (*stream, error) {
	log := opts.Logger
	s := &stream{}

	for {
		c, err := readChunk(r, opts.MaxChunkSize)
		if err != nil {
			switch {
			case err == io.EOF:
				return nil, fmt.Errorf("%w: stream ended before IEND: %w", ErrInvalidFormat, ErrTruncated)
			case errors.Is(err, ErrResourceExhausted), errors.Is(err, ErrInvalidFormat):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
			}
		}
		if opts.VerifyChecksums {
			if err := c.verifyCRC(); err != nil {
				return nil, err
			}
		}

		switch c.typ {
		case chunkPLTE:
			if s.hasPalette {
				return nil, fmt.Errorf("%w: duplicate PLTE chunk", ErrInvalidFormat)
			}
			pal, err := parsePalette(c)
			if err != nil {
				return nil, err
			}
			s.palette = pal
			s.hasPalette = true
			log.Debug().Int("entries", pal.Len()).Bool("grayscale", pal.IsGrayscale()).Msg("palette")

		case chunkIDAT:
			if len(c.data) == 0 {
				continue
			}
			if len(c.data) > opts.MaxCompressedSize-len(s.compressed) {
				return nil, fmt.Errorf("%w: image data exceeds %d bytes", ErrResourceExhausted, opts.MaxCompressedSize)
			}
			if s.compressed == nil {
				s.compressed = c.data
			} else {
				s.compressed = append(s.compressed, c.data...)
			}

		case chunkIEND:
			log.Debug().
				Int("compressed", len(s.compressed)).
				Int("skipped", s.skipped).
				Msg("reached IEND")
			if err := s.checkColorType(hdr); err != nil {
				return nil, err
			}
			return s, nil

		default:
			s.skipped++
			log.Debug().Str("type", c.typ.String()).Uint32("length", c.length).Msg("skipping chunk")
		}
	}
}

// checkColorType cross-checks palette presence against the header.
func (s *stream) checkColorType(hdr *ImageHeader) error {
	switch {
	case hdr.ColorType == ctGrayscale && s.hasPalette:
		return fmt.Errorf("%w: PLTE chunk in grayscale image", ErrInvalidFormat)
	case hdr.ColorType == ctPaletted && !s.hasPalette:
		return fmt.Errorf("%w: indexed image without PLTE chunk", ErrInvalidFormat)
	}
	return nil
}
