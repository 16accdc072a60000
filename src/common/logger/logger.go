package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerEnvironment string

const (
	LoggerEnvDevelopment LoggerEnvironment = "development"
	LoggerEnvProduction  LoggerEnvironment = "production"
)

var Logger *zap.SugaredLogger

func init() {
	InitLogger(LoggerEnvDevelopment)
}

// InitLogger builds the global logger. Besides the two environments, any zap
// level name (debug, info, warn, error) is accepted and yields a production
// encoder at that level.
func InitLogger(env LoggerEnvironment) {
	var cfg zap.Config

	switch env {
	case LoggerEnvDevelopment, "":
		cfg = zap.NewDevelopmentConfig()
	case LoggerEnvProduction:
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(strings.ToLower(string(env)))
		if err != nil {
			level = zapcore.InfoLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	Logger = l.Sugar()
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
