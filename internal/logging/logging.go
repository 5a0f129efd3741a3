// Package logging builds the process logger.
//
// Records below error level go to one writer (stdout), error records and
// above to another (stderr), so cron mail and shell redirection can tell
// routine progress from failures.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the logger.
type Options struct {
	// Verbose enables debug records.
	Verbose bool

	// Out receives records below error level. Default: os.Stdout
	Out io.Writer

	// Err receives error records and above. Default: os.Stderr
	Err io.Writer
}

// New returns a console logger splitting records by level.
func New(opts Options) *zap.Logger {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	minLevel := zapcore.InfoLevel
	if opts.Verbose {
		minLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(opts.Out), low),
		zapcore.NewCore(encoder, zapcore.AddSync(opts.Err), high),
	)
	return zap.New(core)
}
