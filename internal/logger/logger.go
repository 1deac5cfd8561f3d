// Package logger builds the application's zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger at debug level when debug is set, and a
// production JSON logger at info level otherwise.
func New(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log.Named("skyview"), nil
}

// GLSeverity names an OpenGL debug message severity.
func GLSeverity(severity uint32) string {
	switch severity {
	case 0x9146:
		return "high"
	case 0x9147:
		return "medium"
	case 0x9148:
		return "low"
	case 0x826B:
		return "notification"
	default:
		return fmt.Sprintf("0x%X", severity)
	}
}

// GLDebug returns a callback that forwards OpenGL debug messages to log.
// High severity messages are logged as errors, notifications at debug level.
func GLDebug(log *zap.Logger) func(source, kind, id, severity uint32, message string) {
	return func(source, kind, id, severity uint32, message string) {
		fields := []zap.Field{
			zap.Uint32("source", source),
			zap.Uint32("type", kind),
			zap.Uint32("id", id),
			zap.String("severity", GLSeverity(severity)),
		}
		switch GLSeverity(severity) {
		case "high":
			log.Error(message, fields...)
		case "medium", "low":
			log.Warn(message, fields...)
		default:
			log.Debug(message, fields...)
		}
	}
}
