package pngpnm

import "fmt"

// Palette holds PLTE entries as packed RGB triples, indexed from 0.
type Palette []byte

// parsePalette takes ownership of the PLTE payload.
func parsePalette(c *chunk) (Palette, error) {
	if len(c.data)%3 != 0 {
		return nil, fmt.Errorf("%w: PLTE length %d is not a multiple of 3", ErrInvalidFormat, len(c.data))
	}
	return Palette(c.data), nil
}

// Len returns the number of entries.
func (p Palette) Len() int {
	return len(p) / 3
}

// IsGrayscale reports whether every entry has equal R, G and B. Such a
// palette expands to one byte per pixel.
func (p Palette) IsGrayscale() bool {
	for i := 0; i+2 < len(p); i += 3 {
		if p[i] != p[i+1] || p[i] != p[i+2] {
			return false
		}
	}
	return true
}

// expandRow resolves each index in indices through the palette, writing
// depth bytes per pixel into dst. With depth 1 only the first channel of
// each entry is copied, which is the gray level of a grayscale palette.
func (p Palette) expandRow(dst, indices []byte, depth int) error {
	n := p.Len()
	for i, idx := range indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: palette index %d out of range (%d entries)", ErrInvalidFormat, idx, n)
		}
		copy(dst[i*depth:(i+1)*depth], p[int(idx)*3:int(idx)*3+depth])
	}
	return nil
}
