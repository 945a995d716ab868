package spanline

import (
	"io"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileWriter creates a file writer with rotation using lumberjack.
// Returns nil if the path is empty.
func NewFileWriter(cfg FileConfig) io.Writer {
	if cfg.Path == "" {
		return nil
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100 // Default 100MB
	}

	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 7 // Default 7 days
	}

	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5 // Default 5 backups
	}

	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,    // megabytes
		MaxAge:     maxAge,     // days
		MaxBackups: maxBackups, // number of backups
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}

// buildSink assembles the layer's write syncer from config: locked stdout or
// stderr for console output, a rotating file when enabled, or both. With
// nothing enabled the sink falls back to locked stdout so events are never
// lost to a misconfiguration.
//
// Each event is one Write call, so interleaving between concurrent events is
// bounded by whatever atomicity the sink gives a single write.
func buildSink(cfg Config) (zapcore.WriteSyncer, []Warning) {
	var warnings []Warning
	sinks := make([]zapcore.WriteSyncer, 0, 2)

	if cfg.Console.Enabled {
		switch cfg.Console.Stream {
		case "stderr":
			sinks = append(sinks, zapcore.Lock(os.Stderr))
		default:
			sinks = append(sinks, zapcore.Lock(os.Stdout))
		}
	}

	if cfg.File.Enabled {
		if w := NewFileWriter(cfg.File); w != nil {
			sinks = append(sinks, zapcore.AddSync(w))
		} else {
			warnings = append(warnings, Warning{Component: "file", Err: errNoFilePath})
		}
	}

	switch len(sinks) {
	case 0:
		return zapcore.Lock(os.Stdout), warnings
	case 1:
		return sinks[0], warnings
	default:
		return zapcore.NewMultiWriteSyncer(sinks...), warnings
	}
}
