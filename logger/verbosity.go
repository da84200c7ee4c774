package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for CLI flag counts (-v, -vv, ...).
const (
	VerbosityUser  = 0 // no flags: results, warnings (incl. watchdog events) and errors
	VerbosityInfo  = 1 // -v: + tick summaries, startup info
	VerbosityDebug = 2 // -vv: + per-tick timing, config values, dispatch detail
	VerbosityTrace = 3 // -vvv: + per-node compute/sink flow
)

// VerbosityToLevel maps a verbosity flag count to a zap level.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ShouldLogTrace reports whether per-node flow logging should be emitted.
func ShouldLogTrace(verbosity int) bool {
	return verbosity >= VerbosityTrace
}
