package logx

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level   string
	Dev     bool
	Console bool // human readable console encoding on stdout instead of JSON
}

var loggerLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// LevelFromString falls back to info for unknown names.
func LevelFromString(lvl string) zapcore.Level {
	level, exist := loggerLevelMap[lvl]
	if !exist {
		return zapcore.InfoLevel
	}
	return level
}

// New builds a sugared logger writing to w (or stdout in console mode).
func New(opts Options, w io.Writer) *zap.SugaredLogger {
	var sink zapcore.WriteSyncer
	if opts.Console || w == nil {
		sink = zapcore.AddSync(os.Stdout)
	} else {
		sink = zapcore.AddSync(w)
	}

	var encoderCfg zapcore.EncoderConfig
	if opts.Dev {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderCfg = zap.NewProductionEncoderConfig()
	}
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opts.Console {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(LevelFromString(opts.Level)))
	return zap.New(core, zap.AddCaller()).Sugar()
}
