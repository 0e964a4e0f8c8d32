package apperror

import (
	"errors"
	"fmt"
)

type Code string

const (
	SchemaMismatch        Code = "SCHEMA_MISMATCH"
	InvalidFrequency      Code = "INVALID_FREQUENCY"
	InvalidCriterion      Code = "INVALID_CRITERION"
	InvalidConflictPolicy Code = "INVALID_CONFLICT_POLICY"
	InvalidMergeHow       Code = "INVALID_MERGE_HOW"
	InvalidFormat         Code = "INVALID_FORMAT"
	NotImplemented        Code = "NOT_IMPLEMENTED"
	FileNotFound          Code = "FILE_NOT_FOUND"
	FileExists            Code = "FILE_EXISTS"
	InvalidConfig         Code = "INVALID_CONFIG"
	Download              Code = "DOWNLOAD"
	NoData                Code = "NO_DATA"
)

type AppError struct {
	code    Code
	message string
	err     error
}

func New(code Code, format string, args ...any) *AppError {
	return &AppError{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code to err. The message of err is kept as the cause.
func Wrap(code Code, err error, format string, args ...any) *AppError {
	return &AppError{code: code, message: fmt.Sprintf(format, args...), err: err}
}

func (e *AppError) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *AppError) Unwrap() error   { return e.err }
func (e *AppError) Code() Code      { return e.code }
func (e *AppError) Message() string { return e.message }

// CodeOf returns the code of the first AppError in err's chain, or "" when there is none.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports whether a failure with this code may succeed against another source.
func IsRetryable(code Code) bool {
	switch code {
	case Download, NoData:
		return true
	default:
		return false
	}
}
