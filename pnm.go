package pngpnm

import (
	"bufio"
	"fmt"
	"io"
)

// pnmWriter emits a binary PGM (P5) or PPM (P6) stream with maxval 255.
type pnmWriter struct {
	w *bufio.Writer
}

func newPNMWriter(w io.Writer) *pnmWriter {
	return &pnmWriter{w: bufio.NewWriter(w)}
}

// writeHeader writes the three header lines. depth selects P5 for 1 byte
// per pixel and P6 for 3.
func (p *pnmWriter) writeHeader(width, height uint32, depth int) error {
	magic := '5'
	if depth == 3 {
		magic = '6'
	}
	_, err := fmt.Fprintf(p.w, "P%c\n%d %d\n255\n", magic, width, height)
	return err
}

func (p *pnmWriter) writeRow(row []byte) error {
	_, err := p.w.Write(row)
	return err
}

func (p *pnmWriter) flush() error {
	return p.w.Flush()
}
