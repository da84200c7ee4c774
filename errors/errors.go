// Package errors defines the Node Graph Runtime's error taxonomy.
//
// It wraps github.com/cockroachdb/errors for stack traces, safe detail
// payloads, and errors.Is/As compatibility, and layers five sentinel kinds
// on top matching the runtime's fatal-to-advisory policy:
//
//	ProgrammerError     - thrown from loadGraph; caller must handle, no state retained
//	RuntimeCompileError - cycle in data edges; runtime halts
//	RuntimeBurst        - sink-burst watchdog tripped; runtime halts
//	RuntimeOscillation  - advisory; runtime keeps ticking
//	NodeHookException   - a process/onSink/onDisable hook panicked or returned an error
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Re-exported core helpers so callers rarely need to import cockroachdb/errors directly.
var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
	Is          = crdb.Is
	As          = crdb.As
	Unwrap      = crdb.Unwrap
	GetAllDetails = crdb.GetAllDetails
)

// Kind distinguishes the five taxonomy members from §7.
type Kind int

const (
	KindProgrammer Kind = iota
	KindCompile
	KindBurst
	KindOscillation
	KindNodeHook
)

func (k Kind) String() string {
	switch k {
	case KindProgrammer:
		return "programmer-error"
	case KindCompile:
		return "compile-error"
	case KindBurst:
		return "sink-burst"
	case KindOscillation:
		return "oscillation"
	case KindNodeHook:
		return "node-hook-exception"
	default:
		return "unknown"
	}
}

// TaxonomyError is the common shape of every sentinel error in this package.
// Use errors.As to recover one from an arbitrary error chain.
type TaxonomyError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *TaxonomyError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TaxonomyError) Unwrap() error { return e.cause }

// Fatal reports whether this taxonomy member halts the runtime (§7 policy:
// compile-error and sink-burst halt; oscillation and node-hook errors do not).
func (e *TaxonomyError) Fatal() bool {
	return e.Kind == KindCompile || e.Kind == KindBurst
}

// NewProgrammerError builds the error loadGraph throws for unknown types,
// invalid connection endpoints, or duplicate data inputs.
func NewProgrammerError(format string, args ...interface{}) error {
	return &TaxonomyError{Kind: KindProgrammer, Message: fmt.Sprintf(format, args...)}
}

// NewCompileError builds the fatal cycle-detection error raised through onWatchdog.
func NewCompileError(message string) error {
	return &TaxonomyError{Kind: KindCompile, Message: message}
}

// NewBurstError builds the fatal sink-burst watchdog error.
func NewBurstError(message string) error {
	return &TaxonomyError{Kind: KindBurst, Message: message}
}

// NewOscillationError builds the advisory (non-fatal) oscillation watchdog error.
func NewOscillationError(message string) error {
	return &TaxonomyError{Kind: KindOscillation, Message: message}
}

// NewNodeHookError wraps a panic or error returned from process/onSink/onDisable.
// The offending node's outputs become empty for the tick; the runtime continues.
func NewNodeHookError(nodeID, hook string, cause error) error {
	return &TaxonomyError{
		Kind:    KindNodeHook,
		Message: fmt.Sprintf("node %q hook %q failed", nodeID, hook),
		cause:   cause,
	}
}

// IsFatal reports whether err (or something it wraps) is a taxonomy error
// that should halt the runtime.
func IsFatal(err error) bool {
	var te *TaxonomyError
	if As(err, &te) {
		return te.Fatal()
	}
	return false
}

// KindOf extracts the Kind of a taxonomy error, ok=false if err isn't one.
func KindOf(err error) (Kind, bool) {
	var te *TaxonomyError
	if As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}
