package logmux

import (
	"strconv"
	"strings"
)

// Level is the severity of a log record. Higher is more severe.
type Level int32

// Log level constants, ordered DEBUG < INFO < WARNING < ERROR < CRITICAL.
const (
	LevelDebug    Level = 10
	LevelInfo     Level = 20
	LevelWarning  Level = 30
	LevelError    Level = 40
	LevelCritical Level = 50
)

// String returns the canonical upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return "LEVEL(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseLevel converts a level name to its numeric constant.
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use DEBUG, INFO, WARNING, ERROR, CRITICAL)", levelStr)
	}
}

// Mode is the role an aggregator instance plays for a record queue.
type Mode int

const (
	// ModeSingleProcess binds facades directly to the handler chain.
	ModeSingleProcess Mode = iota
	// ModeOwner created the queue and listener and is the only role allowed
	// to stop them.
	ModeOwner
	// ModeWorker writes into a queue owned by another instance.
	ModeWorker
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSingleProcess:
		return "single_process"
	case ModeOwner:
		return "multi_process_owner"
	case ModeWorker:
		return "multi_process_worker"
	default:
		return "unknown"
	}
}

// Handler sink kinds recognized in configuration.
const (
	SinkStream            = "stream"
	SinkFile              = "file"
	SinkRotatingFile      = "rotating_file"
	SinkTimedRotatingFile = "timed_rotating_file"
)

// Formatter defaults.
const (
	DefaultFormat  = "%(asctime)s - %(name)s - %(levelname)s - %(message)s"
	DefaultDatefmt = "%Y-%m-%d %H:%M:%S"
)
