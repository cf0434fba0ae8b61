package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns the process logger. Debug mode uses zap's development config
// (console encoding, debug level); otherwise JSON at info level with ISO8601 timestamps.
// Every entry carries service=apiquery.
func NewLogger(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.InitialFields = map[string]any{"service": "apiquery"}
	return cfg.Build()
}
