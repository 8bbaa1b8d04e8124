// Package logging configures the service logger: console plus a
// size-rotated file, JSON in production and console encoding in dev.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the shared logger. Development mode enables debug level
// and colored console output; production logs JSON at info level.
// The file sink rotates at 100MB keeping 5 backups for 30 days.
func New(development bool, logFilePath string) *zap.Logger {
	level := zapcore.InfoLevel
	if development {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEncCfg := encCfg
	var consoleEnc zapcore.Encoder
	if development {
		consoleEncCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEnc = zapcore.NewConsoleEncoder(consoleEncCfg)
	} else {
		consoleEnc = zapcore.NewJSONEncoder(consoleEncCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), level),
	}
	if logFilePath != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileWriter, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
