// Package logging sets up the single process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	log  zerolog.Logger
)

// Level mirrors the three verbosity settings the CLI exposes (-v / default
// / -q); it is translated to a zerolog.Level at Init time.
type Level int

const (
	Quiet Level = iota
	Normal
	Verbose
)

// Init configures the process logger. Safe to call once; later calls are
// no-ops so that tests and the real CLI entrypoint can both call it.
func Init(w io.Writer, lvl Level) {
	once.Do(func() {
		if w == nil {
			w = os.Stderr
		}
		zl := zerolog.New(w).With().Timestamp().Logger()
		log = zl.Level(zerologLevel(lvl))
	})
}

func zerologLevel(lvl Level) zerolog.Level {
	switch lvl {
	case Quiet:
		return zerolog.WarnLevel
	case Verbose:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// L returns the process logger, defaulting to Normal/stderr if Init was
// never called.
func L() *zerolog.Logger {
	once.Do(func() {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	})
	return &log
}
