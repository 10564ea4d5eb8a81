package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// Init builds the global logger. Production mode emits JSON, development
// mode colorized console output.
func Init(production bool) error {
	var config zap.Config

	if production {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := config.Build()
	if err != nil {
		return err
	}

	logger = l
	return nil
}

// L returns the global logger. Safe to call before Init (no-op logger).
func L() *zap.Logger {
	return logger
}

func Sync() {
	_ = logger.Sync()
}
