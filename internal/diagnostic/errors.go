package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"scim-patch/internal/common"
)

// Kind classifies a patch engine failure.
type Kind int

const (
	KindUnknown Kind = iota
	// AttributeNotFound reports an unknown attribute or path segment name.
	AttributeNotFound
	// AmbiguousSource reports a source path resolving to more than one object.
	AmbiguousSource
	// InvalidOperationSemantics reports an operation that is well formed but
	// not allowed, such as a filter on the terminal segment of an add.
	InvalidOperationSemantics
	// ValueRequired reports an add, replace or test without a payload.
	ValueRequired
	// ValueCoercionFailure reports a payload that cannot be coerced to the
	// declared type of its target.
	ValueCoercionFailure
	// InvalidFilterSemantics reports an operator used against an incompatible
	// attribute type, or an unknown attribute inside a filter.
	InvalidFilterSemantics
	// InvalidFilterSyntax reports filter text that does not parse.
	InvalidFilterSyntax
	// InvalidDocument reports a patch document that does not decode.
	InvalidDocument
	// TypeMismatch reports a value that cannot be stored in an attribute.
	TypeMismatch
	// TestFailed reports a test operation whose value did not match.
	TestFailed
	// ApplyFailure wraps whatever a strategy raised while applying.
	ApplyFailure
	// RevertFailure wraps whatever a strategy raised while reverting.
	RevertFailure
)

// String returns the name used in error messages and reports.
func (k Kind) String() string {
	switch k {
	case AttributeNotFound:
		return "AttributeNotFound"
	case AmbiguousSource:
		return "AmbiguousSource"
	case InvalidOperationSemantics:
		return "InvalidOperationSemantics"
	case ValueRequired:
		return "ValueRequired"
	case ValueCoercionFailure:
		return "ValueCoercionFailure"
	case InvalidFilterSemantics:
		return "InvalidFilterSemantics"
	case InvalidFilterSyntax:
		return "InvalidFilterSyntax"
	case InvalidDocument:
		return "InvalidDocument"
	case TypeMismatch:
		return "TypeMismatch"
	case TestFailed:
		return "TestFailed"
	case ApplyFailure:
		return "ApplyFailure"
	case RevertFailure:
		return "RevertFailure"
	default:
		return common.UnknownStr
	}
}

// Sentinels for errors.Is. Any *Error of the same kind matches them.
var (
	ErrAttributeNotFound         = &Error{Kind: AttributeNotFound}
	ErrAmbiguousSource           = &Error{Kind: AmbiguousSource}
	ErrInvalidOperationSemantics = &Error{Kind: InvalidOperationSemantics}
	ErrValueRequired             = &Error{Kind: ValueRequired}
	ErrValueCoercionFailure      = &Error{Kind: ValueCoercionFailure}
	ErrInvalidFilterSemantics    = &Error{Kind: InvalidFilterSemantics}
	ErrInvalidFilterSyntax       = &Error{Kind: InvalidFilterSyntax}
	ErrInvalidDocument           = &Error{Kind: InvalidDocument}
	ErrTypeMismatch              = &Error{Kind: TypeMismatch}
	ErrTestFailed                = &Error{Kind: TestFailed}
	ErrApplyFailure              = &Error{Kind: ApplyFailure}
	ErrRevertFailure             = &Error{Kind: RevertFailure}
)

// Error is a patch engine failure.
type Error struct {
	Kind Kind
	// Message is the human-readable description.
	Message string
	// Attribute is the offending attribute or segment name (if any).
	Attribute string
	// Type is the owning type name (if any).
	Type string
	// Path is the operation path this relates to (if any).
	Path string
	// Suggestions are close attribute names on Type.
	Suggestions []string
	// Err is the underlying cause.
	Err error
}

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind with err as its cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound returns an AttributeNotFound error naming the attribute and the
// type it was looked up on.
func NotFound(attribute, typeName string, suggestions ...string) *Error {
	return &Error{
		Kind:        AttributeNotFound,
		Message:     fmt.Sprintf("property %q not found in target object of type %s", attribute, typeName),
		Attribute:   attribute,
		Type:        typeName,
		Suggestions: suggestions,
	}
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Kind.String())
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString(" (did you mean ")
		b.WriteString(strings.Join(e.Suggestions, ", "))
		b.WriteString("?)")
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t == e {
		return true
	}

	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// WithPath returns a copy of e annotated with the operation path.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path

	return &c
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}
