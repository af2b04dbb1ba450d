package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создаёт логгер. В режиме release используется JSON-вывод,
// в остальных режимах консольный цветной.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config.Build()
}

// Sync сбрасывает буферы, ошибку синхронизации stderr игнорируем.
func Sync(l *zap.Logger) {
	if l != nil {
		_ = l.Sync()
	}
}
