package pngpnm

import "fmt"

// Filter type, as defined by PNG.
const (
	ftNone    = 0
	ftSub     = 1
	ftUp      = 2
	ftAverage = 3
	ftPaeth   = 4
	nFilter   = 5
)

// A rowSink receives reconstructed rows top to bottom. The slice passed to
// writeRow is only valid for the duration of the call.
type rowSink interface {
	writeRow(row []byte) error
}

// outputDepth returns the number of output bytes per pixel: 1 for grayscale
// and for indexed images with a grayscale palette, 3 otherwise.
func outputDepth(hdr *ImageHeader, pal Palette) int {
	switch hdr.ColorType {
	case ctGrayscale:
		return 1
	case ctPaletted:
		if pal.IsGrayscale() {
			return 1
		}
	}
	return 3
}

// reconstruct undoes scanline filtering in buf, which holds hdr.Height rows
// of lay.rowSize bytes, each led by its filter type byte. buf is modified in
// place. Each finished row is expanded through pal when the image is indexed
// and is then passed to sink.
func reconstruct(buf []byte, hdr *ImageHeader, lay layout, pal Palette, depth int, sink rowSink) error {
	if len(buf) != lay.size {
		return fmt.Errorf("%w: scanline buffer is %d bytes, want %d", ErrInvalidFormat, len(buf), lay.size)
	}
	bpp := hdr.bytesPerSample()
	indexed := hdr.ColorType == ctPaletted

	// The row above the first one reads as zeros.
	prev, err := allocate(lay.stride)
	if err != nil {
		return err
	}
	var line []byte
	if indexed {
		if line, err = allocate(int(hdr.Width) * depth); err != nil {
			return err
		}
	}

	for y := 0; y < int(hdr.Height); y++ {
		row := buf[y*lay.rowSize : (y+1)*lay.rowSize]
		cur := row[1:]
		if err := unfilterRow(row[0], cur, prev, bpp); err != nil {
			return fmt.Errorf("row %d: %w", y, err)
		}

		if indexed {
			if err := pal.expandRow(line, cur, depth); err != nil {
				return fmt.Errorf("row %d: %w", y, err)
			}
			err = sink.writeRow(line)
		} else {
			err = sink.writeRow(cur)
		}
		if err != nil {
			return err
		}

		// The current row for y is the previous row for y+1.
		prev = cur
	}
	return nil
}

// unfilterRow reverses filter ft on cur given the already reconstructed row
// above it. bpp is the distance to the corresponding byte of the pixel on
// the left. Arithmetic is modulo 256.
func unfilterRow(ft byte, cur, prev []byte, bpp int) error {
	switch ft {
	case ftNone:
		// No-op.
	case ftSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case ftUp:
		for i, p := range prev {
			cur[i] += p
		}
	case ftAverage:
		// The first pixel has no left neighbour.
		n := min(bpp, len(cur))
		for i := 0; i < n; i++ {
			cur[i] += prev[i] / 2
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += uint8((int(cur[i-bpp]) + int(prev[i])) / 2)
		}
	case ftPaeth:
		filterPaeth(cur, prev, bpp)
	default:
		return fmt.Errorf("%w: filter type %d", ErrUnsupported, ft)
	}
	return nil
}

func filterPaeth(cur, prev []byte, bpp int) {
	n := min(bpp, len(cur))
	for i := 0; i < n; i++ {
		cur[i] += paeth(0, prev[i], 0)
	}
	for i := bpp; i < len(cur); i++ {
		cur[i] += paeth(cur[i-bpp], prev[i], prev[i-bpp])
	}
}

// paeth returns whichever of left, above and upper-left is closest to
// left+above-upperLeft. Ties go to left, then above.
func paeth(left, above, upperLeft uint8) uint8 {
	a, b, c := int(left), int(above), int(upperLeft)
	p := a + b - c
	pa := abs(p - a)
	pb := abs(p - b)
	pc := abs(p - c)
	if pa <= pb && pa <= pc {
		return left
	} else if pb <= pc {
		return above
	}
	return upperLeft
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
