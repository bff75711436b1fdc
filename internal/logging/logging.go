// Package logging builds the loggers used by trackerdb commands.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the log sink.
type Options struct {
	// File, when set, receives a copy of every log line. The file is
	// rotated once it reaches MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Stderr is the console sink. Nil means os.Stderr.
	Stderr io.Writer
}

// Sink is the shared writer behind every prefixed logger.
type Sink struct {
	w      io.Writer
	rotate *lumberjack.Logger
}

// NewSink opens the log sink. The caller MUST call Close() when done.
func NewSink(opts Options) *Sink {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	if opts.File == "" {
		return &Sink{w: stderr}
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	rotate := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
	}
	return &Sink{w: io.MultiWriter(stderr, rotate), rotate: rotate}
}

// Logger returns a logger writing to the sink with prefix, e.g. "[export] ".
func (s *Sink) Logger(prefix string) *log.Logger {
	return log.New(s.w, prefix, log.LstdFlags)
}

// Close flushes and closes the log file, if any.
func (s *Sink) Close() error {
	if s.rotate == nil {
		return nil
	}
	return s.rotate.Close()
}
