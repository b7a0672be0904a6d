// Package logging points the standard logger at a rotating log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unklstewy/ads-bsim/pkg/config"
)

// Options controls where log output goes.
type Options struct {
	// Console keeps writing to stderr alongside the file. Terminal UIs
	// turn this off so log lines do not land on the screen.
	Console bool

	// DefaultFile is used when the config does not name a file.
	DefaultFile string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup configures the standard logger from cfg and returns a closer for
// the log file. With no file configured and Console set, output stays on
// stderr.
func Setup(cfg config.LoggingConfig, opts Options) (io.Closer, error) {
	file := cfg.File
	if file == "" {
		file = opts.DefaultFile
	}
	if file == "" {
		if opts.Console {
			log.SetOutput(os.Stderr)
			return nopCloser{}, nil
		}
		// Nowhere to write; a TUI must not print to the terminal
		log.SetOutput(io.Discard)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}

	if opts.Console {
		log.SetOutput(io.MultiWriter(os.Stderr, w))
	} else {
		log.SetOutput(w)
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	log.Printf("📝 Logging to %s (%s/%s, %d CPUs, %s)", file, runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), buildVersion())
	return w, nil
}

// DefaultFile returns name under the user cache directory, or "" when there
// is none.
func DefaultFile(name string) string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ads-bsim", name)
}

func buildVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown build"
	}
	return bi.GoVersion
}
