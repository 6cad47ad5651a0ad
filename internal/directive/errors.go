package directive

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrParse matches every error raised while parsing a template
	ErrParse = errors.New("parse error")
	// ErrResolve matches every error raised while expanding a template
	ErrResolve = errors.New("resolution error")
)

// Kind classifies a directive error
type Kind int

const (
	KindParse Kind = iota + 1
	KindResolve
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindResolve:
		return "resolution error"
	}
	return "error"
}

// Pos is a location inside a template. Line and Column are 1-based; Column counts bytes.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Error is a located template error
type Error struct {
	Kind Kind
	Pos  Pos
	Msg  string
	// Err is the underlying cause, if any
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrParse or ErrResolve according to the error kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrParse:
		return e.Kind == KindParse
	case ErrResolve:
		return e.Kind == KindResolve
	}
	return false
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Parsef builds a parse error at pos
func Parsef(pos Pos, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Resolvef builds a resolution error at pos
func Resolvef(pos Pos, format string, args ...any) *Error {
	return &Error{Kind: KindResolve, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// WrapResolve builds a resolution error at pos caused by err
func WrapResolve(pos Pos, err error, format string, args ...any) *Error {
	return &Error{Kind: KindResolve, Pos: pos, Msg: fmt.Sprintf(format, args...), Err: err}
}
