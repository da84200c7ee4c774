package logger

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// stageEncoder is a calm, single-line console encoder:
//
//	13:04:35.120  client grace period expired  client_id=phone-1
//
// It exists so interactive CLI use (cmd/stagectl) doesn't pay JSON's
// visual noise; headless hosts should pass jsonOutput=true to Initialize
// and get zap's production JSON encoder instead.
type stageEncoder struct {
	zapcore.Encoder
	buf *buffer.Buffer
}

func newStageEncoder() *stageEncoder {
	base := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return &stageEncoder{Encoder: base, buf: buffer.NewPool().Get()}
}

func (enc *stageEncoder) Clone() zapcore.Encoder {
	return &stageEncoder{Encoder: enc.Encoder.Clone(), buf: buffer.NewPool().Get()}
}

const (
	reset  = "\x1b[0m"
	bold   = "\x1b[1m"
	dim    = "\x1b[38;5;109m" // timestamp / component
	accent = "\x1b[38;5;108m" // message
	warnFg = "\x1b[38;5;214m"
	warnBg = "\x1b[48;5;58m"
	errFg  = "\x1b[38;5;167m"
	errBg  = "\x1b[48;5;52m"
	numFg  = "\x1b[38;5;142m"
)

func (enc *stageEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := buffer.NewPool().Get()

	out.AppendString(dim)
	out.AppendString(ent.Time.Format("15:04:05.000"))
	out.AppendString(reset)

	if ent.Level != zapcore.InfoLevel {
		out.AppendString("  ")
		out.AppendString(levelTag(ent.Level))
	}

	if ent.LoggerName != "" {
		out.AppendString("  ")
		out.AppendString(dim)
		out.AppendString(ent.LoggerName)
		out.AppendString(reset)
	}

	out.AppendString("  ")
	out.AppendString(accent)
	out.AppendString(ent.Message)
	out.AppendString(reset)

	if kv := fieldSummary(fields); kv != "" {
		out.AppendString("  ")
		out.AppendString(kv)
	}

	out.AppendString("\n")
	return out, nil
}

func levelTag(level zapcore.Level) string {
	switch level {
	case zapcore.WarnLevel:
		return bold + warnBg + warnFg + "WARN" + reset
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return bold + errBg + errFg + level.CapitalString() + reset
	default:
		return ""
	}
}

func fieldValue(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", f.Integer)
	case zapcore.Float64Type:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(f.Integer)))
	default:
		if f.Interface != nil {
			return fmt.Sprintf("%v", f.Interface)
		}
		return ""
	}
}

// fieldSummary renders structured fields (minus the symbol tag, which is
// decorative only) as "key=value key=value ...".
func fieldSummary(fields []zapcore.Field) string {
	var parts []string
	for _, f := range fields {
		if f.Key == FieldSymbol {
			continue
		}
		v := fieldValue(f)
		if v == "" {
			continue
		}
		parts = append(parts, f.Key+"="+numFg+v+reset)
	}
	return strings.Join(parts, " ")
}
