package logging

import (
	"github.com/blinklabs-io/cardano-txbuilder/internal/config"
	"go.uber.org/zap"
)

// Logger wraps a zap.SugaredLogger so callers get the Printf-style API
// (Debugf/Infof/Warnf/Errorf/Fatalf) used throughout this repo without
// pulling the zap import into every package.
type Logger struct {
	*zap.SugaredLogger
}

var globalLogger *Logger

func Configure() {
	cfg := config.GetConfig()
	var level zap.AtomicLevel
	switch cfg.Logging.Level {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	logger, err := zapCfg.Build()
	if err != nil {
		// Fall back to a basic logger rather than leave globalLogger nil
		logger = zap.NewExample()
	}
	globalLogger = &Logger{logger.Sugar().With("component", "txbuilder")}
}

func GetLogger() *Logger {
	if globalLogger == nil {
		Configure()
	}
	return globalLogger
}
