// Package logging configures the application logger: JSON-line files per level and
// day, mirrored to the console in development.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures New.
type Options struct {
	Dir         string
	Development bool
	// Console receives the mirrored records in development. Defaults to stdout.
	Console io.Writer
	// Fallback receives reports of failed file writes. Defaults to stderr.
	Fallback io.Writer
}

// New returns a logger that appends every info, warning and error record to
// <dir>/<level>-<YYYY-MM-DD>.log.
func New(opts Options) *logrus.Logger {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	if opts.Fallback == nil {
		opts.Fallback = os.Stderr
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if opts.Development {
		logger.SetOutput(opts.Console)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	} else {
		logger.SetOutput(io.Discard)
	}
	logger.AddHook(NewFileHook(opts.Dir, opts.Fallback))
	return logger
}

// FileHook appends formatted records to one file per (level, calendar day).
type FileHook struct {
	dir       string
	formatter logrus.Formatter
	fallback  io.Writer
	mu        sync.Mutex
}

func NewFileHook(dir string, fallback io.Writer) *FileHook {
	if fallback == nil {
		fallback = os.Stderr
	}
	return &FileHook{
		dir: dir,
		formatter: &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		},
		fallback: fallback,
	}
}

func (h *FileHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

// Fire never fails: write errors are reported to the fallback writer and dropped.
func (h *FileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(h.fallback, "format log record: %v\n", err)
		return nil
	}

	path := filepath.Join(h.dir, FileName(levelName(entry.Level), entry.Time))

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := appendLine(path, line); err != nil {
		fmt.Fprintf(h.fallback, "write log record: %v\n", err)
	}
	return nil
}

// FileName returns the log file name for level on the UTC day of t.
func FileName(level string, t time.Time) string {
	return fmt.Sprintf("%s-%s.log", level, t.UTC().Format(dayLayout))
}

const dayLayout = "2006-01-02"

func levelName(level logrus.Level) string {
	switch level {
	case logrus.InfoLevel:
		return "info"
	case logrus.WarnLevel:
		return "warning"
	default:
		return "error"
	}
}

func appendLine(path string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append log file: %w", err)
	}
	return f.Close()
}
