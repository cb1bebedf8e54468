package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

func FmtErrorf(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Normalize trims surrounding space and lowercases an answer or a word so the
// two can be compared directly.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ExpandPath replaces a leading ~ and environment variables.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return os.ExpandEnv(p)
}

// NewLogger builds a logger writing to w. An unknown level falls back to info.
func NewLogger(w io.Writer, level string, prefix string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          prefix,
		ReportTimestamp: true,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// OpenLogFile appends log output to the file at p, creating its directory.
// The returned func closes the file.
func OpenLogFile(p string, level string, prefix string) (*log.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, nil, FmtErrorf("create log dir", err)
	}
	f, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, FmtErrorf("open log file", err)
	}
	return NewLogger(f, level, prefix), f.Close, nil
}
