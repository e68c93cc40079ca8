package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New builds the application logger. Logs go to stdout with timestamps
// and the app name as prefix.
func New(app, level string) *log.Logger {
	logger := log.New(os.Stdout)
	logger.SetPrefix(app)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	logger.SetLevel(parseLevel(level))
	return logger
}

// Discard returns a logger that drops everything; used in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
