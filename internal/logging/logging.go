// Package logging builds the process-wide zerolog logger for screenlog,
// following the file+console multi-writer setup in tokenman's daemon
// package (allaspectsdev-tokenman/internal/daemon/daemon.go): always log to
// a file under the data directory, and additionally pretty-print to
// stderr when running attached to a terminal.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New builds a Logger that writes JSON lines to <dataDir>/screenlog.log and,
// when interactive is true, also writes a human-readable form to stderr.
// The returned close func must be called to release the log file handle.
func New(dataDir string, level string, interactive bool) (zerolog.Logger, func() error, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return zerolog.Logger{}, nil, err
	}
	logPath := filepath.Join(dataDir, "screenlog.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	writers := []io.Writer{logFile}
	if interactive {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}

	zerolog.SetGlobalLevel(parseLevel(level))
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("service", "screenlog").
		Logger()

	return logger, logFile.Close, nil
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
