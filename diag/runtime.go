package diag

import "sync/atomic"

// RuntimeKind is a runtime error kind (no source location), surfaced into
// the atomic error word that VM.Exec polls between instructions, per §5/§7.
type RuntimeKind int32

const (
	RuntimeNone RuntimeKind = iota
	RuntimeOutOfMemory
	RuntimeShapeMismatch
	RuntimeInvalidOpcode
	// RuntimeNumericError is never written to ErrorWord: a non-finite
	// result is masked to 0 by kernels, not surfaced as an error (§7).
	RuntimeNumericError
)

func (k RuntimeKind) String() string {
	switch k {
	case RuntimeOutOfMemory:
		return "OutOfMemory"
	case RuntimeShapeMismatch:
		return "RuntimeShapeMismatch"
	case RuntimeInvalidOpcode:
		return "InvalidOpcode"
	case RuntimeNumericError:
		return "NumericError"
	default:
		return "None"
	}
}

// ErrorWord is the shared atomic error code the backend kernels write into
// and VM.Exec polls after each instruction, lock-free.
type ErrorWord struct {
	v atomic.Int32
}

// Set stores kind, first-error-wins (a subsequent Set of a different kind
// is ignored once an error is already recorded).
func (e *ErrorWord) Set(kind RuntimeKind) {
	e.v.CompareAndSwap(int32(RuntimeNone), int32(kind))
}

// Load reads the current kind without taking a lock.
func (e *ErrorWord) Load() RuntimeKind { return RuntimeKind(e.v.Load()) }

// Clear resets the word to RuntimeNone, e.g. between VM.Reset() calls.
func (e *ErrorWord) Clear() { e.v.Store(int32(RuntimeNone)) }

// IsSet reports whether any error has been recorded.
func (e *ErrorWord) IsSet() bool { return e.Load() != RuntimeNone }
