package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const TimeFormat = "2006-01-02 15:04:05.999"

// AtomicLevel is shared by every logger built here, so the level can be
// changed at runtime.
var AtomicLevel = zap.NewAtomicLevel()

// SetLevel parses level ("debug", "info", ...) and applies it. Unknown levels
// are ignored and reported.
func SetLevel(level string) error {
	return AtomicLevel.UnmarshalText([]byte(level))
}

// New builds a console logger. The LOG_LEVEL environment variable applies
// first; a non-empty level argument overrides it.
func New(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.Level = AtomicLevel
	_ = AtomicLevel.UnmarshalText([]byte(os.Getenv("LOG_LEVEL")))
	if level != "" {
		if err := SetLevel(level); err != nil {
			return nil, err
		}
	}
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(TimeFormat)
	config.DisableStacktrace = true
	config.Sampling = nil
	return config.Build()
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
