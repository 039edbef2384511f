package pngpnm

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"slices"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// chunkType is the 4-byte chunk tag read as a big-endian integer.
type chunkType uint32

// Critical chunk types
const (
	chunkIHDR chunkType = 0x49484452 // "IHDR" - Image header
	chunkPLTE chunkType = 0x504C5445 // "PLTE" - Palette
	chunkIDAT chunkType = 0x49444154 // "IDAT" - Image data
	chunkIEND chunkType = 0x49454E44 // "IEND" - Image trailer
)

const (
	// maxChunkLength is the PNG limit on a chunk's declared length (2^31-1).
	maxChunkLength = 0x7fffffff

	// payloadStep bounds how much payload is buffered ahead of the bytes
	// actually received, so a forged length on a short stream cannot force a
	// large allocation.
	payloadStep = 64 << 10
)

func (t chunkType) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	return fmt.Sprintf("%q", b[:])
}

// chunk is one length-prefixed, typed, CRC-suffixed record.
type chunk struct {
	length uint32
	typ    chunkType
	data   []byte // exactly length bytes
	crc    uint32
}

// checkSignature consumes and validates the 8-byte PNG signature.
func checkSignature(r io.Reader) error {
	var sig [len(pngSignature)]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return fmt.Errorf("%w: missing PNG signature: %w", ErrInvalidFormat, err)
	}
	if string(sig[:]) != pngSignature {
		return fmt.Errorf("%w: not a PNG file", ErrInvalidFormat)
	}
	return nil
}

// readChunk reads the next chunk from r. It returns io.EOF, unwrapped, when
// the stream ends exactly at a chunk boundary; every other short read is
// ErrTruncated. limit caps the declared payload length.
func readChunk(r io.Reader, limit int) (*chunk, error) {
	var buf [8]byte

	n, err := io.ReadFull(r, buf[:4])
	if err != nil {
		if n == 0 && err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: chunk length: %w", ErrTruncated, err)
	}
	if _, err := io.ReadFull(r, buf[4:8]); err != nil {
		return nil, fmt.Errorf("%w: chunk type: %w", ErrTruncated, err)
	}

	c := &chunk{
		length: binary.BigEndian.Uint32(buf[0:4]),
		typ:    chunkType(binary.BigEndian.Uint32(buf[4:8])),
	}

	// The length field is untrusted until checked against both limits.
	if c.length > maxChunkLength {
		return nil, fmt.Errorf("%w: %s chunk length %d exceeds 2^31-1", ErrInvalidFormat, c.typ, c.length)
	}
	if int64(c.length) > int64(limit) {
		return nil, fmt.Errorf("%w: %s chunk length %d exceeds limit %d", ErrResourceExhausted, c.typ, c.length, limit)
	}

	c.data, err = readPayload(r, int(c.length))
	if err != nil {
		return nil, fmt.Errorf("%s chunk payload: %w", c.typ, err)
	}

	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return nil, fmt.Errorf("%w: %s chunk CRC: %w", ErrTruncated, c.typ, err)
	}
	c.crc = binary.BigEndian.Uint32(buf[:4])

	return c, nil
}

// readPayload reads exactly n bytes. When r reports how much data is left the
// length is checked up front; otherwise the buffer grows only as data arrives.
func readPayload(r io.Reader, n int) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok && n > lr.Len() {
		return nil, fmt.Errorf("%w: need %d bytes, %d remain", ErrTruncated, n, lr.Len())
	}

	data, err := allocate(min(n, payloadStep))
	if err != nil {
		return nil, err
	}
	data = data[:0]
	for len(data) < n {
		step := min(n-len(data), payloadStep)
		data = slices.Grow(data, step)
		m, err := io.ReadFull(r, data[len(data):len(data)+step])
		data = data[:len(data)+m]
		if err != nil {
			return nil, fmt.Errorf("%w: got %d of %d bytes: %w", ErrTruncated, len(data), n, err)
		}
	}
	return data, nil
}

// verifyCRC checks the stored CRC-32 against the chunk type and payload.
func (c *chunk) verifyCRC() error {
	var typ [4]byte
	binary.BigEndian.PutUint32(typ[:], uint32(c.typ))

	h := crc32.NewIEEE()
	h.Write(typ[:])
	h.Write(c.data)
	if sum := h.Sum32(); sum != c.crc {
		return fmt.Errorf("%w: %s chunk checksum %08x, computed %08x", ErrInvalidFormat, c.typ, c.crc, sum)
	}
	return nil
}
