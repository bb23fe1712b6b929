// Package minaerr defines the compiler's fatal-error taxonomy.
package minaerr

import (
	"fmt"
	"strings"
)

// ErrorType is the fatal-error taxonomy from spec.md §7.
type ErrorType string

const (
	LexError      ErrorType = "LexError"
	ParseError    ErrorType = "ParseError"
	SemanticError ErrorType = "SemanticError"
	LowerError    ErrorType = "LowerError"
)

// SourceLocation is a position in source text.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// MinaError is a fatal compile-time error with source location.
// Compile-time errors abort with a single message; there is no recovery
// mode and no partial artifact is emitted (spec.md §7).
type MinaError struct {
	Type     ErrorType
	Message  string
	Location SourceLocation
	Symbol   string
}

func (e *MinaError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Type))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Symbol != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Symbol)
		sb.WriteString(")")
	}
	if e.Location.File != "" || e.Location.Line != 0 {
		sb.WriteString(fmt.Sprintf("\n  at %s:%d:%d", e.Location.File, e.Location.Line, e.Location.Column))
	}
	return sb.String()
}

func New(t ErrorType, message, file string, line, column int) *MinaError {
	return &MinaError{
		Type:    t,
		Message: message,
		Location: SourceLocation{
			File:   file,
			Line:   line,
			Column: column,
		},
	}
}

func NewLexError(message, file string, line, column int) *MinaError {
	return New(LexError, message, file, line, column)
}

func NewParseError(message, file string, line, column int) *MinaError {
	return New(ParseError, message, file, line, column)
}

func NewSemanticError(message, symbol, file string, line, column int) *MinaError {
	err := New(SemanticError, message, file, line, column)
	err.Symbol = symbol
	return err
}

func NewLowerError(message string) *MinaError {
	return &MinaError{Type: LowerError, Message: message}
}
