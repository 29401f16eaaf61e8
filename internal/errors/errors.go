package errors

import "errors"

// Code identifies a structured error type used across the application.
type Code string

const (
	// Generic codes
	CodeUnknown Code = "unknown"

	// Remote collaborator errors
	CodeFetchFailed  Code = "fetch_failed"
	CodeUpdateFailed Code = "update_failed"
	CodeNotFound     Code = "not_found"

	// Domain/configuration errors
	CodeValidation         Code = "validation_failed"
	CodeInvalidStatus      Code = "invalid_status"
	CodeInvalidPriority    Code = "invalid_priority"
	CodeInvalidSeverity    Code = "invalid_severity"
	CodeInvalidIssueData   Code = "invalid_issue_data"
	CodeConfigurationError Code = "configuration_error"
)

// Error represents a structured error with a machine-readable code plus message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

// Unwrap returns the wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// New wraps an error with a code/message.
func New(code Code, msg string, err error) Error {
	return Error{Code: code, Message: msg, Err: err}
}

// Fetch marks err as a failed read of the remote issue set.
func Fetch(err error) Error {
	return New(CodeFetchFailed, "failed to load issues", err)
}

// Update marks err as a failed remote confirmation for issueID.
func Update(issueID string, err error) Error {
	return New(CodeUpdateFailed, "failed to update issue "+issueID, err)
}

// Validation reports a rejected value before it took effect.
func Validation(msg string) Error {
	return New(CodeValidation, msg, nil)
}

// CodeOf walks the error chain and returns the first structured code found.
func CodeOf(err error) Code {
	var structured Error
	if errors.As(err, &structured) {
		return structured.Code
	}
	return CodeUnknown
}

// IsCode reports whether the error (or its unwrap chain) matches the provided code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsFetch reports whether err is a FetchError.
func IsFetch(err error) bool { return IsCode(err, CodeFetchFailed) }

// IsUpdate reports whether err is an UpdateError.
func IsUpdate(err error) bool { return IsCode(err, CodeUpdateFailed) }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return IsCode(err, CodeValidation) }
