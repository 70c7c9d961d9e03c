// Package logger builds the zerolog loggers used by the node and the wallet.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Options controls the logger output.
type Options struct {
	// debug, info, warn or error.
	Level string
	// Human readable console output instead of JSON lines.
	Pretty bool
	Writer io.Writer
}

// New returns a logger tagged with service.
func New(service string, opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger(), nil
}

// ParseLevel maps a config level to zerolog. An empty level means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level %q", level)
	}
	return l, nil
}

// SetGlobal makes l the package-level logger used by code without an injected logger.
func SetGlobal(l zerolog.Logger) {
	zlog.Logger = l
}
