package chasm

import (
	"errors"
	"fmt"
)

// ParseErrorCode categorizes parse failures.
type ParseErrorCode string

const (
	// ErrCodeUnknownCommand indicates a verb outside the ChASM command set.
	ErrCodeUnknownCommand ParseErrorCode = "UNKNOWN_COMMAND"

	// ErrCodeArgumentCount indicates a verb invoked with the wrong arity.
	ErrCodeArgumentCount ParseErrorCode = "ARGUMENT_COUNT"

	// ErrCodeArgumentType indicates a non-numeric token where a number is
	// required, or an out-of-domain literal.
	ErrCodeArgumentType ParseErrorCode = "ARGUMENT_TYPE"
)

// ParseError is a static validation failure for a single script line.
// ParseErrors are raised before anything executes; no device is touched
// if any line fails validation.
type ParseError struct {
	Code    ParseErrorCode
	Line    int
	Verb    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Verb != "" {
		return fmt.Sprintf("line %d: %s: %s: %s", e.Line, e.Code, e.Verb, e.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Code, e.Message)
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func unknownCommand(line int, verb string) *ParseError {
	return &ParseError{
		Code:    ErrCodeUnknownCommand,
		Line:    line,
		Verb:    verb,
		Message: "not a ChASM command",
	}
}

func argumentCount(line int, verb string, want string, got int) *ParseError {
	return &ParseError{
		Code:    ErrCodeArgumentCount,
		Line:    line,
		Verb:    verb,
		Message: fmt.Sprintf("expected %s arguments, got %d", want, got),
	}
}

func argumentType(line int, verb string, pos int, token, want string) *ParseError {
	return &ParseError{
		Code:    ErrCodeArgumentType,
		Line:    line,
		Verb:    verb,
		Message: fmt.Sprintf("argument %d: %q is not a valid %s", pos+1, token, want),
	}
}
