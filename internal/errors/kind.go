package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindIO
	KindNetwork
	KindParse
	KindIndexOutOfRange
	KindAlreadyExists
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindIO:
		return "io failure"
	case KindNetwork:
		return "network failure"
	case KindParse:
		return "parse failure"
	case KindIndexOutOfRange:
		return "index out of range"
	case KindAlreadyExists:
		return "already exists"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrIO              = &Error{Kind: KindIO}
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrParse           = &Error{Kind: KindParse}
	ErrIndexOutOfRange = &Error{Kind: KindIndexOutOfRange}
	ErrAlreadyExists   = &Error{Kind: KindAlreadyExists}
	ErrInvalid         = &Error{Kind: KindInvalid}
)

// Error is a classified failure of a single operation.
type Error struct {
	Op   string // e.g. "stage", "catalog search"
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// E builds a classified error. A nil err yields a message-less error of that kind.
func E(op string, kind Kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Errorf is E with a formatted cause.
func Errorf(op string, kind Kind, format string, a ...any) error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, a...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
