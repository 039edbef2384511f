// Package logging builds the zerolog loggers used by the command line tool.
package logging

import (
	"io"
	"time"

	"github.com/ajroetker/go-pngpnm/internal/oops"
	"github.com/rs/zerolog"
)

func init() {
	zerolog.ErrorStackMarshaler = oops.ZerologStackMarshaler
}

// New returns a logger writing human-readable lines to w. level is a zerolog
// level name such as "debug" or "warn"; an empty name means "info".
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(level); err != nil {
			return zerolog.Nop(), err
		}
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// Failure logs err at error level, including the call stack when err
// carries one.
func Failure(logger *zerolog.Logger, err error, msg string) {
	logger.Error().Stack().Err(err).Msg(msg)
}
