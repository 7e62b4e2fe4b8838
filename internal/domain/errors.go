package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing database or table.
	ErrNotFound = errors.New("not found")
	// ErrParse signals a malformed temporal literal in a filter.
	ErrParse = errors.New("parse error")
	// ErrConfigResolution signals a missing or ambiguous embedding configuration.
	ErrConfigResolution = errors.New("embedding configuration not resolvable")
	// ErrUpstream signals a failure of the database or an embedding provider.
	ErrUpstream = errors.New("upstream failure")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrUnknownProvider signals a provider name with no registered factory.
	ErrUnknownProvider = errors.New("unknown embedding provider")
	// ErrUnsupportedCapability signals a provider that cannot produce the requested vector kind.
	ErrUnsupportedCapability = errors.New("unsupported provider capability")
)

// ParseError reports a literal that could not be cast to a column's temporal type.
type ParseError struct {
	Column  string
	Literal any
	Type    string
	Err     error
}

func (e *ParseError) Error() string {
	col := e.Column
	if col == "" {
		col = "<none>"
	}
	msg := fmt.Sprintf("%s: cannot cast %v to %s for column %s", ErrParse.Error(), e.Literal, e.Type, col)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return ErrParse }

// NewParseError creates a parse error for a column literal.
func NewParseError(column string, literal any, typ string, cause error) error {
	return &ParseError{Column: column, Literal: literal, Type: typ, Err: cause}
}
