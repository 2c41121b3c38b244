package logger

import (
	"io"
	"os"
	"strings"

	"github.com/kataras/golog"
)

// Levels accepted by New
var Levels = []string{"debug", "info", "warn", "error", "disable"}

// New creates a prefixed golog logger writing to stderr
func New(level string) *golog.Logger {
	return NewWithOutput(os.Stderr, level)
}

// NewWithOutput creates a logger writing to out. Unknown levels fall back to info.
func NewWithOutput(out io.Writer, level string) *golog.Logger {
	l := golog.New()
	l.SetOutput(out)
	l.SetPrefix("[scraper] ")
	l.SetTimeFormat("2006/01/02 15:04:05")
	l.SetLevel(normalizeLevel(level))
	return l
}

// Discard returns a logger that prints nothing
func Discard() *golog.Logger {
	return NewWithOutput(io.Discard, "disable")
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	for _, l := range Levels {
		if l == level {
			return level
		}
	}
	return "info"
}
