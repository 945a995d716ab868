package spanline

import "strings"

// Level is the severity of an event. Unlike zapcore, spanline has a TRACE
// level below DEBUG, matching the level set used by the wire format.
type Level int8

const (
	TraceLevel Level = iota - 1
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the textual form used in the output document:
// TRACE, DEBUG, INFO, WARN or ERROR.
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Enabled reports whether events at lvl pass a threshold of l.
func (l Level) Enabled(lvl Level) bool {
	return lvl >= l
}

// ParseLevel converts a string level to a Level.
// Unknown strings default to TraceLevel so that nothing is dropped by accident.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return TraceLevel
	}
}
