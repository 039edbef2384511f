// Command pngpnm converts a PNG image to binary PGM or PPM.
//
// Usage:
//
//	pngpnm [flags] <input.png> <output.pnm>
//
// The exit status identifies the outcome: 0 success, 1 a file could not be
// opened or written, 2 out of memory, 3 invalid PNG data, 4 invalid
// arguments, 20 a valid PNG using an unsupported feature.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ajroetker/go-pngpnm"
	"github.com/ajroetker/go-pngpnm/internal/logging"
	"github.com/ajroetker/go-pngpnm/internal/oops"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	decompressor string
	verifyCRC    bool
	maxPixels    int64
	logLevel     string
}

// run executes the command with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var (
		f      flags
		logged bool
	)
	cmd := &cobra.Command{
		Use:           "pngpnm [flags] <input.png> <output.pnm>",
		Short:         "Convert an 8-bit, non-interlaced PNG to PGM or PPM",
		Args:          exactFiles,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(stderr, f.logLevel)
			if err != nil {
				return fmt.Errorf("%w: %w", errUsage, err)
			}
			opts, err := f.options(&logger)
			if err != nil {
				return err
			}
			if err := convertFile(args[0], args[1], opts); err != nil {
				logging.Failure(&logger, err, "conversion failed")
				logged = true
				return err
			}
			logger.Info().Str("input", args[0]).Str("output", args[1]).Msg("converted")
			return nil
		},
	}
	cmd.Flags().StringVar(&f.decompressor, "decompressor", "zlib",
		fmt.Sprintf("inflate implementation, one of %v", pngpnm.DecompressorNames()))
	cmd.Flags().BoolVar(&f.verifyCRC, "verify-crc", false, "reject chunks whose CRC-32 does not match")
	cmd.Flags().Int64Var(&f.maxPixels, "max-pixels", pngpnm.DefaultMaxPixels, "largest accepted width*height")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "trace, debug, info, warn or error")

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err != nil && !logged {
		fmt.Fprintln(stderr, "pngpnm:", err)
	}
	return exitCode(err)
}

func exactFiles(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: want <input.png> <output.pnm>, got %d argument(s)", errUsage, len(args))
	}
	return nil
}

func (f *flags) options(logger *zerolog.Logger) (*pngpnm.Options, error) {
	d, err := pngpnm.DecompressorByName(f.decompressor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if f.maxPixels <= 0 {
		return nil, fmt.Errorf("%w: --max-pixels must be positive", errUsage)
	}
	return &pngpnm.Options{
		Decompressor:    d,
		VerifyChecksums: f.verifyCRC,
		MaxPixels:       f.maxPixels,
		Logger:          logger,
	}, nil
}

// convertFile converts inPath into outPath. Output goes to a temporary file
// in the destination directory that replaces outPath only on success.
func convertFile(inPath, outPath string, opts *pngpnm.Options) (err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return oops.New(fileError(err), "failed to open input")
	}
	defer in.Close()

	src, err := newSizedReader(in)
	if err != nil {
		return oops.New(fileError(err), "failed to stat input")
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), "."+filepath.Base(outPath)+".*")
	if err != nil {
		return oops.New(fileError(err), "failed to create output")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := pngpnm.Convert(src, &fileWriter{f: tmp}, opts); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return oops.New(fileError(err), "failed to close output")
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return oops.New(fileError(err), "failed to move output into place")
	}
	return nil
}

// fileWriter marks write failures as file access errors so they are not
// mistaken for problems with the input.
type fileWriter struct {
	f *os.File
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, oops.New(fileError(err), "failed to write output")
	}
	return n, nil
}

// sizedReader tracks how many bytes of a file remain, which lets the decoder
// reject chunk lengths larger than the rest of the file before allocating.
type sizedReader struct {
	r         io.Reader
	remaining int64
}

func newSizedReader(f *os.File) (*sizedReader, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &sizedReader{r: bufio.NewReader(f), remaining: fi.Size()}, nil
}

func (s *sizedReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.remaining -= int64(n)
	return n, err
}

// Len implements the optional length query used by the chunk reader.
func (s *sizedReader) Len() int {
	if s.remaining < 0 {
		return 0
	}
	if s.remaining > int64(maxInt) {
		return maxInt
	}
	return int(s.remaining)
}

const maxInt = int(^uint(0) >> 1)
