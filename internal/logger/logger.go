// Package logger builds the package-scoped zap loggers used across hwsense.
package logger

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once  sync.Once
	base  *zap.Logger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Logger wraps a zap.Logger tagged with the package it belongs to.
type Logger struct {
	*zap.Logger
}

// mode reads MODE after merging .env, since the first New runs during
// package init, well before config.Load. Real environment variables win.
func mode() string {
	_ = godotenv.Load()
	return os.Getenv("MODE")
}

func build() *zap.Logger {
	var cfg zap.Config
	if mode() == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = level

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l
}

// New takes in a package to initialize the new Logger in.
func New(pkg string) *Logger {
	once.Do(func() {
		base = build()
	})

	return &Logger{Logger: base.With(zap.String("package", pkg))}
}

// SetDebug switches every logger created by New between debug and info level.
func SetDebug(debug bool) {
	if debug {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.InfoLevel)
}

// Sync flushes the shared core.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
