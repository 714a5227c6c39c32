// Package polog sets up the structured logger shared by every component of
// the engine. A run's log is the only record of which blocks were solved
// from cache versus live oracle traffic, which candidates a calibration
// classified into which bucket, and why a block ultimately failed — so it
// uses zap's structured fields rather than formatted strings throughout.
package polog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger that writes human-readable console output to
// stderr and, when path is non-empty, also writes JSON-encoded entries to
// the named log file (spec.md §6: "output log file path"). Opening path
// truncates nothing — entries are appended across runs so a long attack can
// be resumed/audited from the same file.
func New(path string, verbose bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleCfg),
		zapcore.Lock(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "ts"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.Lock(f), level)
		cores = append(cores, fileCore)
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
