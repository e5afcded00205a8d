package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseClassify Phase = "classify" // value classification
	PhaseEncode   Phase = "encode"   // graph walk and wire output
	PhaseDecode   Phase = "decode"   // wire input
	PhaseConfig   Phase = "config"   // codec configuration
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupported   Kind = "unsupported"
	KindTypeMismatch  Kind = "type_mismatch"
	KindDepthExceeded Kind = "depth_exceeded"
	KindTransport     Kind = "transport"
	KindPropertyRead  Kind = "property_read"
	KindInvalidUTF8   Kind = "invalid_utf8"
	KindInvalidData   Kind = "invalid_data"
	KindOverflow      Kind = "overflow"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindTruncated     Kind = "truncated"
)

// Error is the structured error type used throughout the codec
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	Declared string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Declared != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Declared != "" {
			b.WriteString("value type ")
			b.WriteString(e.GoType)
			b.WriteString(", declared type ")
			b.WriteString(e.Declared)
		} else if e.GoType != "" {
			b.WriteString("value type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("declared type ")
			b.WriteString(e.Declared)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Declared != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Path sets the attribute path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the runtime type name of the offending value
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Declared sets the declared type name
func (b *Builder) Declared(t string) *Builder {
	b.err.Declared = t
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

// Unsupported reports a value whose classification has no wire
// representation.
func Unsupported(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Path:   path,
		GoType: goType,
		Detail: "no wire representation",
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, declared string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Path:     path,
		GoType:   goType,
		Declared: declared,
	}
}

// DepthExceeded reports a walk cut off by the recursion depth limit.
func DepthExceeded(path []string, depth, limit int) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindDepthExceeded,
		Path:   path,
		Detail: fmt.Sprintf("recursion depth %d exceeds limit %d", depth, limit),
	}
}

// Transport wraps a write failure on the underlying byte stream. The cause
// is preserved unmodified; partial output cannot be rolled back.
func Transport(cause error) *Error {
	return &Error{
		Phase: PhaseEncode,
		Kind:  KindTransport,
		Cause: cause,
	}
}

// PropertyRead reports a bean property whose accessor failed. Recoverable:
// the property is omitted and the walk continues.
func PropertyRead(path []string, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindPropertyRead,
		Path:   path,
		Detail: fmt.Sprintf("property %q unreadable", name),
		Cause:  cause,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOverflow,
		Path:     path,
		Declared: targetType,
		Detail:   fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:    value,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Truncated reports wire input that ends inside a value.
func Truncated(path []string, want, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncated,
		Path:   path,
		Detail: fmt.Sprintf("need %d more bytes, have %d", want, have),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
