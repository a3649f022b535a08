package utils

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a zap logger writing to w. When debug is true, uses the development
// encoding (human-readable, debug level); otherwise the production encoding (JSON, info
// level). Commands pass stderr so output on stdout stays clean.
func NewLogger(debug bool, w io.Writer) *zap.Logger {
	sink := zapcore.Lock(zapcore.AddSync(w))
	if debug {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(enc, sink, zap.DebugLevel), zap.Development(), zap.AddCaller())
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, sink, zap.InfoLevel), zap.AddCaller())
}

// WarnOnly returns logger with everything below warn level dropped.
func WarnOnly(logger *zap.Logger) *zap.Logger {
	return logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
}
