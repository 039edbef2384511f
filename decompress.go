// Copyright 2025 go-pngpnm Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pngpnm

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"sort"

	kzlib "github.com/klauspost/compress/zlib"
)

// A Decompressor inflates the concatenated IDAT payload. Decompress must
// return exactly expectedSize bytes or fail.
type Decompressor interface {
	Decompress(compressed []byte, expectedSize int) ([]byte, error)
}

// ZlibDecompressor inflates with the standard library's compress/zlib.
type ZlibDecompressor struct{}

// Decompress implements Decompressor.
func (ZlibDecompressor) Decompress(compressed []byte, expectedSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return readExact(zr, expectedSize)
}

// KlauspostDecompressor inflates with github.com/klauspost/compress/zlib.
type KlauspostDecompressor struct{}

// Decompress implements Decompressor.
func (KlauspostDecompressor) Decompress(compressed []byte, expectedSize int) ([]byte, error) {
	zr, err := kzlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return readExact(zr, expectedSize)
}

var decompressors = map[string]Decompressor{
	"zlib":      ZlibDecompressor{},
	"klauspost": KlauspostDecompressor{},
}

// DecompressorByName returns a registered Decompressor: "zlib" or "klauspost".
func DecompressorByName(name string) (Decompressor, error) {
	d, ok := decompressors[name]
	if !ok {
		return nil, fmt.Errorf("pngpnm: unknown decompressor %q (have %v)", name, DecompressorNames())
	}
	return d, nil
}

// DecompressorNames lists the registered decompressor names in sorted order.
func DecompressorNames() []string {
	names := make([]string, 0, len(decompressors))
	for name := range decompressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readExact reads exactly n bytes from r and then requires r to be at EOF.
// The trailing read also makes zlib readers verify their checksum.
func readExact(r io.Reader, n int) ([]byte, error) {
	buf, err := allocate(n)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("not enough pixel data: %w", err)
	}

	var extra [1]byte
	for i := 0; ; i++ {
		if i == 100 {
			return nil, io.ErrNoProgress
		}
		m, err := r.Read(extra[:])
		if m > 0 {
			return nil, errors.New("too much pixel data")
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// inflate runs d over the assembled image data and checks the result size.
// Failures other than resource exhaustion are reported as ErrDecompressFailed
// together with ErrInvalidFormat.
func inflate(d Decompressor, compressed []byte, expectedSize int) ([]byte, error) {
	if len(compressed) == 0 {
		return nil, fmt.Errorf("%w: %w: no image data", ErrInvalidFormat, ErrDecompressFailed)
	}
	out, err := d.Decompress(compressed, expectedSize)
	if err != nil {
		if errors.Is(err, ErrResourceExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w: %w", ErrInvalidFormat, ErrDecompressFailed, err)
	}
	if len(out) != expectedSize {
		return nil, fmt.Errorf("%w: %w: got %d bytes, want %d",
			ErrInvalidFormat, ErrDecompressFailed, len(out), expectedSize)
	}
	return out, nil
}
