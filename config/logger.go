package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide structured logger.
var Logger = zap.NewNop().Sugar()

// LogConfig controls where logs go. Dir "-" disables the rotated file output.
// Stderr moves console output off stdout, for commands that write documents there.
type LogConfig struct {
	Dir        string
	Production bool
	Stderr     bool
}

func InitLogger(cfg LogConfig) error {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleLevel := zap.DebugLevel
	if cfg.Production {
		consoleLevel = zap.InfoLevel
	}

	console := os.Stdout
	if cfg.Stderr {
		console = os.Stderr
	}

	// Console core
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(console),
			consoleLevel,
		),
	}

	// Rotated JSON file core
	if cfg.Dir != "" && cfg.Dir != "-" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   filepath.Join(cfg.Dir, fmt.Sprintf("app_%s.log", time.Now().Format("2006-01-02"))),
				MaxSize:    100, // MB
				MaxBackups: 30,
				MaxAge:     90, // days
			}),
			zap.InfoLevel,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	Logger = logger.Sugar()
	return nil
}
