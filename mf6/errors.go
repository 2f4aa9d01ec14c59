package mf6

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrSchema              = errors.New("schema error")
	ErrShapeMismatch       = errors.New("shape mismatch")
	ErrPeriodRange         = errors.New("period out of range")
	ErrMissingExternalFile = errors.New("external file not found")
	ErrFormat              = errors.New("format error")
	ErrNotFound            = errors.New("not found")
	ErrIndex               = errors.New("index out of range")
)

// FormatError reports malformed file content. It matches ErrFormat with
// errors.Is, as well as any error it wraps.
type FormatError struct {
	File  string
	Line  int    // 1-based; 0 when the problem is not tied to a line
	Token string // offending token, may be empty
	Err   error
}

func (e *FormatError) Error() string {
	msg := "malformed input"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (near %q)", loc, msg, e.Token)
	}
	return fmt.Sprintf("%s: %s", loc, msg)
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

func formatErrorf(file string, line int, token string, format string, args ...any) *FormatError {
	return &FormatError{File: file, Line: line, Token: token, Err: fmt.Errorf(format, args...)}
}
