// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance.
var Log zerolog.Logger

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	Log = newConsole(os.Stdout)
}

func newConsole(out io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetLevel sets the global log level.
func SetLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetJSON switches to JSON output (for production).
func SetJSON() {
	SetOutput(os.Stdout)
}

// SetOutput writes JSON log lines to w.
func SetOutput(w io.Writer) {
	Log = zerolog.New(w).
		With().
		Timestamp().
		Logger()
}

// ForAccount returns a logger tagged with the hashed account id.
func ForAccount(accountID int64) zerolog.Logger {
	return Log.With().Str("account_hash", HashAccountID(accountID)).Logger()
}
