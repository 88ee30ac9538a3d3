// Package errors provides domain-specific error types for proxycfg.
//
// Every validation failure the engine reports is an *Error carrying one of the
// codes below together with the field name and the offending value, so a
// caller can render a message without reaching back into the engine.
package errors

import (
	"fmt"

	"github.com/valyala/fasttemplate"
)

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeInvalidPort indicates a value that is not a port in [1, 65535].
	ErrCodeInvalidPort ErrorCode = "INVALID_PORT"

	// ErrCodeInvalidPortRange indicates a malformed START:END port range.
	ErrCodeInvalidPortRange ErrorCode = "INVALID_PORT_RANGE"

	// ErrCodeDuplicatePort indicates a port repeated inside a port list.
	ErrCodeDuplicatePort ErrorCode = "DUPLICATE_PORT"

	// ErrCodeInvalidAddress indicates a value that is not an IP address or address sentinel.
	ErrCodeInvalidAddress ErrorCode = "INVALID_ADDRESS"

	// ErrCodeRequiredFieldEmpty indicates an empty value for a required field.
	ErrCodeRequiredFieldEmpty ErrorCode = "REQUIRED_FIELD_EMPTY"

	// ErrCodeDuplicateLabel indicates a label already used in the same collection.
	ErrCodeDuplicateLabel ErrorCode = "DUPLICATE_LABEL"

	// ErrCodeNodeAlreadyTaken indicates a node already bound by another enabled routing node.
	ErrCodeNodeAlreadyTaken ErrorCode = "NODE_ALREADY_TAKEN"

	// ErrCodeRecursiveOutbound indicates an outbound chain that would loop.
	ErrCodeRecursiveOutbound ErrorCode = "RECURSIVE_OUTBOUND"

	// ErrCodeRecursiveResolver indicates an address resolver chain that would loop.
	ErrCodeRecursiveResolver ErrorCode = "RECURSIVE_RESOLVER"

	// ErrCodeReferenceNotFound indicates a reference to a record that does not exist.
	ErrCodeReferenceNotFound ErrorCode = "REFERENCE_NOT_FOUND"

	// ErrCodeReferenceDisabled indicates a reference to a record that is disabled.
	ErrCodeReferenceDisabled ErrorCode = "REFERENCE_DISABLED"

	// ErrCodeInvalidValue indicates a value outside the field's accepted syntax or enumeration.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"

	// ErrCodeUnknownField indicates an edit of a field the engine has no rule for.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeStore indicates a failure reading or writing the configuration store.
	ErrCodeStore ErrorCode = "STORE_ERROR"

	// ErrCodeConfig indicates a configuration-related error.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// messageTemplates holds the default message for each field error code.
// {field} and {value} are substituted when the error is created.
var messageTemplates = map[ErrorCode]string{
	ErrCodeInvalidPort:        "Expecting: valid port value",
	ErrCodeInvalidPortRange:   "Expecting a valid port range",
	ErrCodeDuplicatePort:      "Port {value} already exists, please enter other ones.",
	ErrCodeInvalidAddress:     "Expecting: valid IP address",
	ErrCodeRequiredFieldEmpty: "Expecting: non-empty value",
	ErrCodeDuplicateLabel:     "Expecting: unique value, {value} is already used",
	ErrCodeNodeAlreadyTaken:   "This node was already taken.",
	ErrCodeRecursiveOutbound:  "Recursive outbound detected!",
	ErrCodeRecursiveResolver:  "Recursive resolver detected!",
	ErrCodeReferenceNotFound:  "{value} does not exist",
	ErrCodeReferenceDisabled:  "{value} is disabled",
	ErrCodeInvalidValue:       "Expecting: valid value for {field}",
	ErrCodeUnknownField:       "unknown field {field}",
}

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error

	// Field and Value are set for field validation failures.
	Field string
	Value string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Invalid creates a field validation error with the default message for code.
func Invalid(code ErrorCode, field, value string) *Error {
	return Invalidf(code, field, value, messageTemplates[code])
}

// Invalidf creates a field validation error with a custom message template.
// The template may reference {field} and {value}.
func Invalidf(code ErrorCode, field, value, template string) *Error {
	if template == "" {
		template = string(code)
	}
	return &Error{
		Code:    code,
		Message: render(template, field, value),
		Field:   field,
		Value:   value,
	}
}

func render(template, field, value string) string {
	return fasttemplate.ExecuteString(template, "{", "}", map[string]interface{}{
		"field": field,
		"value": value,
	})
}

// Code returns the error code of err, or "" when err is not an *Error.
func Code(err error) ErrorCode {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// NewStoreError creates a new configuration store error.
func NewStoreError(message string, cause error) *Error {
	return Wrap(ErrCodeStore, message, cause)
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}

// WithField returns a copy of e attributed to field.
func (e *Error) WithField(field string) *Error {
	c := *e
	c.Field = field
	return &c
}
