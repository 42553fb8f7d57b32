package dbg

import (
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the zap logger used for telemetry output. Development mode
// is human readable, production mode json.
func NewLogger(development bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// InstallSlogDefault routes the library's slog output to stdout as json.
func InstallSlogDefault() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}
