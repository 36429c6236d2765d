// Package logging builds the zap-backed slog logger shared by the CLI, the
// workers and the Temporal SDK.
package logging

import (
	"log/slog"
	"strings"

	tlog "go.temporal.io/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"megacoop-kyc/config"
)

// New returns a slog.Logger writing through zap, and the zap Sync func to
// flush it on exit.
func New(cfg config.LoggingConfig) (*slog.Logger, func() error) {
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	zapLogger := zap.Must(zc.Build())
	return slog.New(zapslog.NewHandler(zapLogger.Core())), zapLogger.Sync
}

// Temporal adapts logger for Temporal clients and workers.
func Temporal(logger *slog.Logger) tlog.Logger {
	return tlog.NewStructuredLogger(logger)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
