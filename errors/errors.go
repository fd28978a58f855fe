package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseSchema   Phase = "schema"   // schema construction
	PhasePack     Phase = "pack"     // greedy slot packing
	PhaseValidate Phase = "validate" // fixed-order audit
	PhaseCost     Phase = "cost"     // access cost scoring
	PhaseOptimize Phase = "optimize" // ordering search
	PhaseConfig   Phase = "config"   // configuration loading
	PhasePlugin   Phase = "plugin"   // wasm cost plugin
	PhaseImport   Phase = "import"   // WIT record import
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidField         Kind = "invalid_field"
	KindDuplicateName        Kind = "duplicate_name"
	KindEmptySchema          Kind = "empty_schema"
	KindUnsatisfiable        Kind = "unsatisfiable_constraints"
	KindSearchBudgetExceeded Kind = "search_budget_exceeded"
	KindUnknownField         Kind = "unknown_field"
	KindInvalidConfig        Kind = "invalid_config"
	KindPlugin               Kind = "plugin"
)

// Error is the structured error type used throughout slotpack
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Fields []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Fields) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Fields, ", "))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any error in err's chain is an *Error of the given kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	if e.Kind == kind {
		return true
	}
	return e.Cause != nil && IsKind(e.Cause, kind)
}

// IsNonFatal reports whether err only signals a degraded result.
// A nil error is not considered non-fatal.
func IsNonFatal(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == KindSearchBudgetExceeded
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Fields sets the offending field names
func (b *Builder) Fields(names ...string) *Builder {
	b.err.Fields = names
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidField creates an error for a field whose width cannot be packed
func InvalidField(phase Phase, name string, width int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidField,
		Fields: []string{name},
		Detail: fmt.Sprintf("width %d outside 1..32", width),
		Value:  width,
	}
}

// DuplicateName creates an error for a field name declared twice
func DuplicateName(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateName,
		Fields: []string{name},
		Detail: fmt.Sprintf("field %q declared more than once", name),
	}
}

// EmptySchema creates an error for a schema without fields
func EmptySchema(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEmptySchema,
		Detail: "schema has no fields",
	}
}

// Unsatisfiable creates an error for contradictory locks or groups
func Unsatisfiable(phase Phase, detail string, names ...string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsatisfiable,
		Fields: names,
		Detail: detail,
	}
}

// BudgetExceeded creates the non-fatal error returned alongside a heuristic result
func BudgetExceeded(limit, explored int64, cause error) *Error {
	return &Error{
		Phase:  PhaseOptimize,
		Kind:   KindSearchBudgetExceeded,
		Detail: fmt.Sprintf("exact search stopped after %d of %d nodes, heuristic layout returned", explored, limit),
		Value:  explored,
		Cause:  cause,
	}
}

// UnknownField creates an error for a reference to an undeclared field
func UnknownField(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownField,
		Fields: []string{name},
		Detail: fmt.Sprintf("field %q is not part of the layout", name),
	}
}

// InvalidConfig creates a configuration error
func InvalidConfig(source string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidConfig,
		Detail: source,
		Cause:  cause,
	}
}

// Plugin creates a cost plugin error
func Plugin(detail string, cause error) *Error {
	return &Error{
		Phase:  PhasePlugin,
		Kind:   KindPlugin,
		Detail: detail,
		Cause:  cause,
	}
}
