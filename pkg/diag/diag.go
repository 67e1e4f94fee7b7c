// Package diag carries user-facing compile errors and renders them to the
// terminal.
package diag

import (
	"fmt"

	"cmips/pkg/token"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Handler receives every diagnostic produced during compilation.
type Handler func(loc token.Location, severity, message string)

// Error is a user-facing compile error. It carries the source span it was
// produced at; internal invariant violations panic instead.
type Error struct {
	Loc token.Location
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func Errorf(loc token.Location, format string, args ...any) *Error {
	return &Error{Loc: loc, Msg: fmt.Sprintf(format, args...)}
}
