// Package diag implements the compiler's source-located diagnostics sink and
// the closed set of runtime error kinds, per spec §7.
package diag

import "fmt"

// Kind is a compiler-side error kind, source-located.
type Kind int

const (
	ParseError Kind = iota
	UnknownOp
	UnresolvedReference
	TypeMismatch
	ShapeMismatch
	GraphCycle
	MaxInlineDepth
	IOError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case UnknownOp:
		return "UnknownOp"
	case UnresolvedReference:
		return "UnresolvedReference"
	case TypeMismatch:
		return "TypeMismatch"
	case ShapeMismatch:
		return "ShapeMismatch"
	case GraphCycle:
		return "GraphCycle"
	case MaxInlineDepth:
		return "MaxInlineDepth"
	case IOError:
		return "IOError"
	default:
		return "Unknown"
	}
}

// Severity distinguishes a hard error (stops the pass) from a warning
// (soft-accumulated, pipeline continues).
type Severity int

const (
	SevError Severity = iota
	SevWarning
)

// Location is a source position carried by every IR node from parse onward.
type Location struct {
	File string
	Line, Col int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Diagnostic is one source-located compiler message.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	Loc      Location
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s: %s", d.Kind, d.Loc, d.Message)
}

// Sink accumulates diagnostics for one compile and fails fast on any hard
// error at the end of the pass that produced it, per §4.4.
type Sink struct {
	diags []Diagnostic
}

// Errorf records a hard error at loc.
func (s *Sink) Errorf(kind Kind, loc Location, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Kind: kind, Severity: SevError, Message: fmt.Sprintf(format, args...), Loc: loc})
}

// Warnf records a soft-accumulated warning at loc.
func (s *Sink) Warnf(kind Kind, loc Location, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Kind: kind, Severity: SevWarning, Message: fmt.Sprintf(format, args...), Loc: loc})
}

// HasErrors reports whether any hard error was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// All returns every recorded diagnostic, in recording order.
func (s *Sink) All() []Diagnostic { return s.diags }

// First returns the first hard error, or nil if there is none.
func (s *Sink) First() *Diagnostic {
	for i := range s.diags {
		if s.diags[i].Severity == SevError {
			return &s.diags[i]
		}
	}
	return nil
}
