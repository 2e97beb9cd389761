// Package logger configures the process-wide logrus logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/attendance/internal/config"
)

// Init configures level, format and outputs. Logs go to stderr so that command
// output on stdout stays clean; cfg.File additionally tees into a file. The
// returned function closes that file.
func Init(cfg config.LogConfig) (func() error, error) {
	return initWith(cfg, os.Stderr)
}

func initWith(cfg config.LogConfig, stderr io.Writer) (func() error, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info': %v", cfg.Level, err)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	closeFn := func() error { return nil }
	writers := []io.Writer{stderr}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, file)
		closeFn = file.Close
	}

	log.SetOutput(io.MultiWriter(writers...))
	log.WithFields(log.Fields{"level": level.String(), "file": cfg.File}).Debug("Logger initialized")
	return closeFn, nil
}
