// Package failure defines the error kinds produced while creating and
// verifying certificates.
//
// Every kind is an *Error carrying a name, an optional cause and the stack at
// the point of construction. Callers distinguish kinds with errors.Is against
// the exported sentinels:
//
//	if errors.Is(err, failure.ErrServiceConflict) {
//		// already anchored
//	}
package failure

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// Named is an error that you can read a name from
type Named interface {
	Name() string
}

// WithStackTrace is an error that you can read a stack trace from
type WithStackTrace interface {
	Stack() string
}

type Failure interface {
	error
	Named
}

const (
	InputErrorName        = "InputError"
	EncodingErrorName     = "EncodingError"
	FormatErrorName       = "FormatError"
	PrefixErrorName       = "PrefixError"
	TypeMismatchErrorName = "TypeMismatchError"
	AuthErrorName         = "AuthError"
	ServiceConflictName   = "ServiceConflict"
	ServiceErrorName      = "ServiceError"
)

var (
	ErrInput           = &Error{name: InputErrorName}
	ErrEncoding        = &Error{name: EncodingErrorName}
	ErrFormat          = &Error{name: FormatErrorName}
	ErrPrefix          = &Error{name: PrefixErrorName}
	ErrTypeMismatch    = &Error{name: TypeMismatchErrorName}
	ErrAuth            = &Error{name: AuthErrorName}
	ErrServiceConflict = &Error{name: ServiceConflictName}
	ErrService         = &Error{name: ServiceErrorName}
)

// Error is a named failure. Two errors match under errors.Is when their names
// are equal.
type Error struct {
	name    string
	message string
	cause   error
	stack   errors.StackTrace
}

func (e *Error) Name() string {
	return e.name
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.message
	}
	if e.message == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.name == e.name
}

func (e *Error) Stack() string {
	return fmt.Sprintf("%+v", e.stack)
}

// New creates a named failure with a formatted message.
func New(name string, format string, args ...any) *Error {
	return &Error{name: name, message: fmt.Sprintf(format, args...), stack: callers()}
}

// Wrap creates a named failure that wraps cause. The message is prepended to
// the cause's message.
func Wrap(name string, cause error, format string, args ...any) *Error {
	return &Error{name: name, message: fmt.Sprintf(format, args...), cause: cause, stack: callers()}
}

func Input(format string, args ...any) *Error {
	return New(InputErrorName, format, args...)
}

func Encoding(cause error, format string, args ...any) *Error {
	return Wrap(EncodingErrorName, cause, format, args...)
}

func Format(cause error, format string, args ...any) *Error {
	return Wrap(FormatErrorName, cause, format, args...)
}

func Prefix(format string, args ...any) *Error {
	return New(PrefixErrorName, format, args...)
}

func TypeMismatch(format string, args ...any) *Error {
	return New(TypeMismatchErrorName, format, args...)
}

func Auth(format string, args ...any) *Error {
	return New(AuthErrorName, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(ServiceConflictName, format, args...)
}

func Service(cause error, format string, args ...any) *Error {
	return Wrap(ServiceErrorName, cause, format, args...)
}

// NameOf returns the failure name of err, or "Error" if no error in the chain
// is named.
func NameOf(err error) string {
	var named Named
	if errors.As(err, &named) {
		return named.Name()
	}
	return "Error"
}

func callers() errors.StackTrace {
	const depth = 32

	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	f := make(errors.StackTrace, n)
	for i := 0; i < n; i++ {
		f[i] = errors.Frame(pcs[i])
	}
	return f
}
