package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Global logger instance. Usable before Initialize so that package-level
	// component loggers created at init time write somewhere.
	Logger = newConsoleLogger(os.Stdout)
)

func newConsoleLogger(out io.Writer) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    false,
	}
	return zerolog.New(consoleWriter).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Initialize sets up the global logger with appropriate configuration
func Initialize(logLevel string) {
	// Set time format to be more human-readable
	zerolog.TimeFieldFormat = time.RFC3339

	Logger = newConsoleLogger(os.Stdout)
	zerolog.SetGlobalLevel(ParseLevel(logLevel))

	// Replace standard log with zerolog
	log.Logger = Logger
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(logLevel string) zerolog.Level {
	switch logLevel {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger instance
func Get() *zerolog.Logger {
	return &Logger
}

// GetForComponent returns a logger with a component field for better filtering
func GetForComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// FileWriter returns a writer to a log file for optional use alongside console logging
func FileWriter(path string) (io.Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return file, nil
}
