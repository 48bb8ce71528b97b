// Package lerr implements the compiler's error taxonomy (spec.md §7).
//
// Every fatal condition the backend can raise carries one of the Kind
// tags below plus a human-readable message and, optionally, a wrapped
// cause. There is no global error variable and no panic-based control
// flow on the happy path: every fallible operation in internal/ir,
// internal/cfg, internal/regalloc and internal/isa returns an error.
package lerr

import (
	"errors"
	"fmt"
)

// Kind tags a fatal compilation error.
type Kind string

const (
	ProgramNotInitialized Kind = "program-not-initialized"
	InvalidInstruction    Kind = "invalid-instruction"
	InvalidOpcode         Kind = "invalid-opcode"
	InvalidRegister       Kind = "invalid-register"
	InvalidAddress        Kind = "invalid-address"
	InvalidLabel          Kind = "invalid-label"
	InvalidLabelManager   Kind = "invalid-label-manager"
	InvalidType           Kind = "invalid-type"
	InvalidArraySize      Kind = "invalid-array-size"
	VariableIDUnspecified Kind = "variable-id-unspecified"
	VariableAlreadyDecl   Kind = "variable-already-declared"
	SymbolTableError      Kind = "symbol-table-error"
	RegisterAllocError    Kind = "register-allocation-error"
	CFGUndefined          Kind = "cfg-undefined"
	CFGInvalidBlock       Kind = "cfg-invalid-block"
	CFGInvalidNode        Kind = "cfg-invalid-node"
	CFGInvalidLabel       Kind = "cfg-invalid-label"
	CFGOutOfMemory        Kind = "cfg-out-of-memory"
	FopenError            Kind = "fopen-error"
	FwriteError           Kind = "fwrite-error"
	FcloseError           Kind = "fclose-error"
	InvalidInputFile      Kind = "invalid-input-file"
	InvalidCFlowGraph     Kind = "invalid-cflow-graph"
	InvalidExpression     Kind = "invalid-expression"
	OutOfMemory           Kind = "out-of-memory"
	UnencodableInstruction Kind = "unencodable-instruction"
)

// Error is the concrete error type returned throughout the backend.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func New(k Kind, msg string) *Error { return &Error{Kind: k, Msg: msg} }

func Wrap(k Kind, cause error, msg string) *Error {
	return &Error{Kind: k, Msg: msg, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, lerr.New(kind, "")) comparisons by Kind alone.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// KindOf extracts the Kind of err, if it (or something it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// WarningKind tags a non-fatal, reported-but-continued condition.
type WarningKind string

const (
	DivisionByZero     WarningKind = "division-by-zero"
	InvalidShiftAmount WarningKind = "invalid-shift-amount"
)

// Warning is a single non-fatal diagnostic collected by a Sink.
type Warning struct {
	Kind WarningKind
	Msg  string
}

func (w Warning) String() string { return fmt.Sprintf("warning: %s: %s", w.Kind, w.Msg) }

// Sink accumulates warnings during constant folding and similar passes
// that substitute a defined value rather than aborting (spec.md §7).
type Sink struct {
	Warnings []Warning
}

func (s *Sink) Report(k WarningKind, msg string) {
	s.Warnings = append(s.Warnings, Warning{Kind: k, Msg: msg})
}

func (s *Sink) Empty() bool { return len(s.Warnings) == 0 }
