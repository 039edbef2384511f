package pngpnm

import "github.com/rs/zerolog"

// Default limits applied when the corresponding Options field is zero.
const (
	// DefaultMaxChunkSize is the largest chunk length PNG allows (2^31-1).
	DefaultMaxChunkSize = 0x7fffffff
	// DefaultMaxCompressedSize caps the concatenated IDAT payload at 1 GiB.
	DefaultMaxCompressedSize = 1 << 30
	// DefaultMaxPixels caps width*height at 256 megapixels.
	DefaultMaxPixels = 1 << 28
)

// Options controls decoding. The zero value is ready to use.
type Options struct {
	// Decompressor inflates the concatenated IDAT payload.
	// nil selects ZlibDecompressor.
	Decompressor Decompressor

	// VerifyChecksums enables CRC-32 verification of every chunk. A mismatch
	// is reported as ErrInvalidFormat. Off by default: chunk CRCs are read
	// but not checked.
	VerifyChecksums bool

	// MaxChunkSize limits the declared length of a single chunk.
	// 0 means DefaultMaxChunkSize.
	MaxChunkSize int

	// MaxCompressedSize limits the total size of the IDAT payload.
	// 0 means DefaultMaxCompressedSize.
	MaxCompressedSize int

	// MaxPixels limits width*height as declared by the header.
	// 0 means DefaultMaxPixels.
	MaxPixels int64

	// Logger receives debug events for chunks and decoding stages.
	// nil disables logging.
	Logger *zerolog.Logger
}

// withDefaults returns a copy of o with zero fields replaced by defaults.
func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.Decompressor == nil {
		opts.Decompressor = ZlibDecompressor{}
	}
	if opts.MaxChunkSize <= 0 || opts.MaxChunkSize > DefaultMaxChunkSize {
		opts.MaxChunkSize = DefaultMaxChunkSize
	}
	if opts.MaxCompressedSize <= 0 {
		opts.MaxCompressedSize = DefaultMaxCompressedSize
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return opts
}
