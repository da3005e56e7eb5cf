package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError carries an operator hint and reportable details alongside the
// wrapped cause. Built via NewError/WithError and finalized with Mark.
type InternalError struct {
	cause   error
	hint    string
	details map[string]interface{}
}

func (e *InternalError) Error() string {
	if e.cause == nil {
		return e.hint
	}
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Hint returns the human-readable hint attached to the error, if any.
func (e *InternalError) Hint() string {
	return e.hint
}

// Details returns the reportable details attached to the error, if any.
func (e *InternalError) Details() map[string]interface{} {
	return e.details
}

// ErrorBuilder provides a fluent API for constructing classified errors.
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts a builder from a message.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: errors.NewWithDepth(1, msg)}}
}

// NewErrorf starts a builder from a formatted message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return NewError(fmt.Sprintf(format, args...))
}

// WithError starts a builder wrapping an existing error.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{cause: err}}
}

// WithHint attaches a human-readable hint for operators and API consumers.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.hint = hint
	return b
}

// WithHintf attaches a formatted hint.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details safe to expose in logs
// and error responses.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err.details = details
	return b
}

// Mark finalizes the builder, tagging the error with a marker error so that
// errors.Is(err, marker) holds on the result and anything wrapping it.
func (b *ErrorBuilder) Mark(marker error) error {
	return errors.Mark(b.err, marker)
}

// HintFromErr extracts the first hint found in the error chain.
func HintFromErr(err error) string {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Hint()
	}
	return ""
}

// DetailsFromErr extracts the first reportable details found in the error chain.
func DetailsFromErr(err error) map[string]interface{} {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Details()
	}
	return nil
}
