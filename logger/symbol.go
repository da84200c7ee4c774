package logger

import "go.uber.org/zap"

// Symbol-tagged helpers keep event messages clean and queryable by category
// instead of embedding a glyph in the message text.
const (
	FieldSymbol = "symbol"

	SymTick      = "⏱" // ⏱ tick loop
	SymWatchdog  = "⚠" // ⚠ watchdog event
	SymDispatch  = "➤" // ➤ command dispatch
	SymConn      = "⦾" // ⦾ connection registry
)

func TickInfow(msg string, kv ...interface{}) {
	Logger.Infow(msg, append([]interface{}{FieldSymbol, SymTick}, kv...)...)
}

func TickDebugw(msg string, kv ...interface{}) {
	Logger.Debugw(msg, append([]interface{}{FieldSymbol, SymTick}, kv...)...)
}

func WatchdogWarnw(msg string, kv ...interface{}) {
	Logger.Warnw(msg, append([]interface{}{FieldSymbol, SymWatchdog}, kv...)...)
}

func WatchdogErrorw(msg string, kv ...interface{}) {
	Logger.Errorw(msg, append([]interface{}{FieldSymbol, SymWatchdog}, kv...)...)
}

func DispatchDebugw(msg string, kv ...interface{}) {
	Logger.Debugw(msg, append([]interface{}{FieldSymbol, SymDispatch}, kv...)...)
}

func ConnInfow(msg string, kv ...interface{}) {
	Logger.Infow(msg, append([]interface{}{FieldSymbol, SymConn}, kv...)...)
}

// WithSymbol returns a logger pre-tagged with an ad-hoc symbol.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}
