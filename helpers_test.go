package pngpnm

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"math/rand"
	"testing"
)

// rawChunk serializes a chunk with a correct CRC.
func rawChunk(typ string, data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.WriteString(typ)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.Write(&buf, binary.BigEndian, crc.Sum32())
	return buf.Bytes()
}

// ihdrData builds an IHDR payload with zero compression and filter methods.
func ihdrData(width, height uint32, depth, colorType, interlace byte) []byte {
	d := make([]byte, 13)
	binary.BigEndian.PutUint32(d[0:4], width)
	binary.BigEndian.PutUint32(d[4:8], height)
	d[8] = depth
	d[9] = colorType
	d[12] = interlace
	return d
}

// buildPNG prefixes the signature to the given serialized chunks.
func buildPNG(chunks ...[]byte) []byte {
	out := []byte(pngSignature)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func zlibCompress(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

// filterRows applies PNG filters to raw rows of stride bytes, producing
// scanlines led by their filter byte. filters[y%len(filters)] selects the
// filter of row y.
func filterRows(raw []byte, stride, bpp int, filters []byte) []byte {
	height := len(raw) / stride
	out := make([]byte, 0, height*(stride+1))
	prior := make([]byte, stride)
	for y := 0; y < height; y++ {
		row := raw[y*stride : (y+1)*stride]
		ft := filters[y%len(filters)]
		out = append(out, ft)
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prior[i-bpp]
			}
			up := prior[i]
			var pred byte
			switch ft {
			case ftSub:
				pred = left
			case ftUp:
				pred = up
			case ftAverage:
				pred = byte((int(left) + int(up)) / 2)
			case ftPaeth:
				pred = paeth(left, up, upLeft)
			}
			out = append(out, row[i]-pred)
		}
		prior = row
	}
	return out
}

// randomBytes returns n deterministic pseudo-random bytes.
func randomBytes(seed int64, n int) []byte {
	rng := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	rng.Read(b)
	return b
}

// gradientBytes returns smooth data that compresses and filters like a
// real photograph would.
func gradientBytes(width, height, bpp int) []byte {
	b := make([]byte, width*height*bpp)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < bpp; c++ {
				b[(y*width+x)*bpp+c] = byte(x*3 + y*5 + c*40 + (x*y)%7)
			}
		}
	}
	return b
}

// collectRows is a rowSink that keeps a copy of every row.
type collectRows struct {
	rows [][]byte
}

func (c *collectRows) writeRow(row []byte) error {
	c.rows = append(c.rows, append([]byte(nil), row...))
	return nil
}

func (c *collectRows) bytes() []byte {
	return bytes.Join(c.rows, nil)
}
