package pngpnm

import "errors"

// Error kinds returned by the decoder. Callers classify failures with errors.Is;
// the returned errors carry additional context around one of these sentinels.
var (
	ErrTruncated         = errors.New("pngpnm: truncated data")
	ErrInvalidFormat     = errors.New("pngpnm: invalid format")
	ErrUnsupported       = errors.New("pngpnm: unsupported feature")
	ErrResourceExhausted = errors.New("pngpnm: resource exhausted")
	ErrDecompressFailed  = errors.New("pngpnm: decompress failed")
)
