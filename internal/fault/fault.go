// Package fault defines the coded errors raised while building and
// running dynamic filters.
//
// Every failure in predicate construction is reported as a *Error with a
// Code identifying the category. Callers use the Is* helpers (which
// unwrap with errors.As) to decide how to surface the failure, for
// example the HTTP layer maps all of them to client errors.
package fault

import (
	"errors"
	"fmt"
)

// Code categorizes a filter error.
type Code string

const (
	// CodeFieldNotFound indicates a condition, ordering or projection
	// references a member absent on the record type.
	CodeFieldNotFound Code = "FIELD_NOT_FOUND"

	// CodeConversion indicates a literal value cannot be converted to the
	// member's type.
	CodeConversion Code = "CONVERSION"

	// CodeUnsupportedOperator indicates a search operator applied to a
	// member type that does not support it.
	CodeUnsupportedOperator Code = "UNSUPPORTED_OPERATOR"

	// CodeInvalidGroupRange indicates group bounds inconsistent with the
	// condition list or with nesting.
	CodeInvalidGroupRange Code = "INVALID_GROUP_RANGE"

	// CodeInvalidLogicSequence indicates a non-first node without an
	// And/Or attachment.
	CodeInvalidLogicSequence Code = "INVALID_LOGIC_SEQUENCE"

	// CodeInvalidArgument indicates malformed operation arguments.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// Error is a coded filter error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Field names the offending member or argument, if any.
	Field string

	// Type names the declaring record type, if any.
	Type string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// FieldNotFound reports a missing member on typeName.
func FieldNotFound(typeName, field string) *Error {
	return &Error{
		Code:    CodeFieldNotFound,
		Message: fmt.Sprintf("Property '%s' not found on type '%s'", field, typeName),
		Field:   field,
		Type:    typeName,
	}
}

// Conversion reports a value that cannot be converted to the member type.
// alias is the safe rendering of the value: "null", "empty string",
// "value 'x'" or "some array values".
func Conversion(typeName, field, alias string, cause error) *Error {
	return &Error{
		Code:    CodeConversion,
		Message: fmt.Sprintf("Property '%s' from type '%s' is not compatible with %s", field, typeName, alias),
		Field:   field,
		Type:    typeName,
		Err:     cause,
	}
}

// UnsupportedOperator reports an operator applied to an incompatible type.
func UnsupportedOperator(operator, field, memberType string) *Error {
	return &Error{
		Code:    CodeUnsupportedOperator,
		Message: fmt.Sprintf("Operator '%s' is not supported for property '%s' of type '%s'", operator, field, memberType),
		Field:   field,
		Type:    memberType,
	}
}

// InvalidGroupRange reports bad group bounds or nesting.
func InvalidGroupRange(format string, args ...any) *Error {
	return &Error{
		Code:    CodeInvalidGroupRange,
		Message: fmt.Sprintf(format, args...),
		Field:   "groups",
	}
}

// InvalidLogicSequence reports a node that cannot be attached to its left
// sibling.
func InvalidLogicSequence(position int, logic string) *Error {
	return &Error{
		Code:    CodeInvalidLogicSequence,
		Message: fmt.Sprintf("node %d has logic operator %q, expected And or Or", position, logic),
	}
}

// InvalidArgument reports a malformed operation argument.
func InvalidArgument(field, message string) *Error {
	return &Error{
		Code:    CodeInvalidArgument,
		Message: message,
		Field:   field,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsFault returns true if err wraps a *Error of any code.
func IsFault(err error) bool {
	return CodeOf(err) != ""
}

// IsFieldNotFound returns true if the error is a missing member error.
func IsFieldNotFound(err error) bool {
	return CodeOf(err) == CodeFieldNotFound
}

// IsConversion returns true if the error is a value conversion error.
func IsConversion(err error) bool {
	return CodeOf(err) == CodeConversion
}

// IsUnsupportedOperator returns true if the error is an operator/type
// mismatch.
func IsUnsupportedOperator(err error) bool {
	return CodeOf(err) == CodeUnsupportedOperator
}

// IsInvalidGroupRange returns true if the error is a group range error.
func IsInvalidGroupRange(err error) bool {
	return CodeOf(err) == CodeInvalidGroupRange
}

// IsInvalidLogicSequence returns true if the error is a logic sequence
// error.
func IsInvalidLogicSequence(err error) bool {
	return CodeOf(err) == CodeInvalidLogicSequence
}

// IsInvalidArgument returns true if the error is an argument error.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == CodeInvalidArgument
}

// FieldErrors groups messages by field name, for transports that
// report per-field validation failures.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Fields collects the field-level metadata of err, walking joined errors,
// or nil when nothing in err names a field.
func Fields(err error) FieldErrors {
	out := FieldErrors{}
	collectFields(err, out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func collectFields(err error, out FieldErrors) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collectFields(e, out)
		}
		return
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Field != "" {
		out.Add(fe.Field, fe.Message)
	}
}
