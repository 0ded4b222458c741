// Package logging builds the service's zap logger.
//
// Console output is always on. When a file path is configured the same
// entries are teed into a lumberjack-rotated file.
package logging

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings for the optional log file.
const (
	MaxSizeMB  = 100
	MaxBackups = 5
	MaxAgeDays = 30
)

// Options controls how New builds the logger.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File is an optional path for a rotated log file.
	File string
	// Development selects the colored console encoder instead of JSON.
	Development bool
}

// New returns a logger configured from opts.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var consoleEnc zapcore.Encoder
	if opts.Development {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEnc = zapcore.NewConsoleEncoder(cfg)
	} else {
		consoleEnc = zapcore.NewJSONEncoder(productionEncoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), level),
	}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(productionEncoderConfig()),
			zapcore.AddSync(newFileWriter(opts.File)),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// ParseLevel maps a textual level onto zap's levels.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("logging: unknown level %q", s)
	}
}

func newFileWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
		Compress:   true,
	}
}

func productionEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// Redact renders a secret for logs: the first four characters followed by
// its length. Empty secrets render as "<unset>".
func Redact(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	n := utf8.RuneCountInString(secret)
	if n <= 8 {
		return fmt.Sprintf("****(%d chars)", n)
	}
	return fmt.Sprintf("%s****(%d chars)", string([]rune(secret)[:4]), n)
}
