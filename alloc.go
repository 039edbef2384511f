package pngpnm

import (
	"fmt"
	"runtime"
)

// allocate returns a zeroed buffer of n bytes. A negative size or a size the
// runtime refuses to allocate is reported as ErrResourceExhausted instead of
// crashing the process.
func allocate(n int) (buf []byte, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative allocation size %d", ErrResourceExhausted, n)
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); !ok {
				panic(r)
			}
			buf = nil
			err = fmt.Errorf("%w: cannot allocate %d bytes: %v", ErrResourceExhausted, n, r)
		}
	}()
	return make([]byte, n), nil
}
