package main

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-pngpnm"
)

// Process exit codes.
const (
	exitSuccess          = 0
	exitCannotOpenFile   = 1
	exitOutOfMemory      = 2
	exitDataInvalid      = 3
	exitParameterInvalid = 4
	exitUnsupported      = 20
)

var (
	errUsage      = errors.New("invalid invocation")
	errFileAccess = errors.New("file access failed")
)

func fileError(err error) error {
	return fmt.Errorf("%w: %w", errFileAccess, err)
}

// exitCode maps an error from run to the process exit status. Errors that
// are not classified, such as unknown flags reported by cobra, count as
// invalid parameters.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errFileAccess):
		return exitCannotOpenFile
	case errors.Is(err, pngpnm.ErrResourceExhausted):
		return exitOutOfMemory
	case errors.Is(err, pngpnm.ErrUnsupported):
		return exitUnsupported
	case errors.Is(err, pngpnm.ErrInvalidFormat), errors.Is(err, pngpnm.ErrTruncated):
		return exitDataInvalid
	default:
		return exitParameterInvalid
	}
}
