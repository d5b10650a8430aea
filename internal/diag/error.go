package diag

import (
	"fmt"
	"strings"
)

// Error is a fatal compilation error with enough context for a caller to
// render a diagnostic.
type Error struct {
	Code     Code
	Kind     string
	Name     string
	Expected string
	Actual   string
	Msg      string
}

// Sentinels for errors.Is matching by class.
var (
	ErrNodeConflict             = &Error{Code: NodeConflict}
	ErrMalformedNode            = &Error{Code: MalformedNode}
	ErrTypeMismatch             = &Error{Code: TypeMismatch}
	ErrUnresolvedType           = &Error{Code: UnresolvedType}
	ErrInferenceStalled         = &Error{Code: InferenceStalled}
	ErrUndefinedFunction        = &Error{Code: UndefinedFunction}
	ErrUnsupportedInterpolation = &Error{Code: UnsupportedInterpolation}
	ErrArgumentTypeMismatch     = &Error{Code: ArgumentTypeMismatch}
)

// Newf builds an Error of the given code for a node kind.
func Newf(code Code, kind, format string, args ...any) *Error {
	return &Error{Code: code, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Mismatch builds an error carrying expected and actual renderings.
func Mismatch(code Code, kind, name, expected, actual string) *Error {
	return &Error{Code: code, Kind: kind, Name: name, Expected: expected, Actual: actual}
}

// WithName returns a copy of e naming the variable or function involved.
func (e *Error) WithName(name string) *Error {
	out := *e
	out.Name = name
	return &out
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Code.ID())
	sb.WriteString(" ")
	sb.WriteString(strings.ToLower(e.Code.Title()))
	if e.Kind != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Kind)
	}
	if e.Name != "" {
		fmt.Fprintf(&sb, " %q", e.Name)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&sb, ": expected %s, got %s", orUnknown(e.Expected), orUnknown(e.Actual))
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	return sb.String()
}

// Is reports whether target is an *Error of the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func orUnknown(s string) string {
	if s == "" {
		return "<unresolved>"
	}
	return s
}
