package notiondb

import (
	"errors"
	"fmt"

	"github.com/longkey1/kitlend/internal/notion"
)

// ErrorCode categorizes notiondb errors.
type ErrorCode string

const (
	// CodePropertyNotFound: a schema field names a property the page lacks.
	CodePropertyNotFound ErrorCode = "PROPERTY_NOT_FOUND"
	// CodePropertyKindMismatch: the page property has a different kind than the schema declares.
	CodePropertyKindMismatch ErrorCode = "PROPERTY_KIND_MISMATCH"
	// CodeInvalidEnumValue: a closed enumeration field holds a value outside its set.
	CodeInvalidEnumValue ErrorCode = "INVALID_ENUM_VALUE"
	// CodeUnsupportedRollupShape: a rollup holds a different variant than the preset reads.
	CodeUnsupportedRollupShape ErrorCode = "UNSUPPORTED_ROLLUP_SHAPE"
	// CodeTypeMismatch: a decoder or encoder received a value of the wrong Go type.
	CodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// CodeNotFound: a keyed lookup matched no record.
	CodeNotFound ErrorCode = "NOT_FOUND"
	// CodePartialPageResult: a query page contained partial page objects.
	CodePartialPageResult ErrorCode = "PARTIAL_PAGE_RESULT"
	// CodeNotFullPage: a single-page call returned a partial page object.
	CodeNotFullPage ErrorCode = "NOT_FULL_PAGE"
	// CodeFieldNotWritable: a write targeted a field without an encoder.
	CodeFieldNotWritable ErrorCode = "FIELD_NOT_WRITABLE"
	// CodeIdentifierIsImmutable: a write targeted the record identifier.
	CodeIdentifierIsImmutable ErrorCode = "IDENTIFIER_IS_IMMUTABLE"
	// CodeNonStringKey: a key-value projection key did not decode to a string.
	CodeNonStringKey ErrorCode = "NON_STRING_KEY"
	// CodeUnknownRecordType: the record type has no schema.
	CodeUnknownRecordType ErrorCode = "UNKNOWN_RECORD_TYPE"
	// CodeUnknownField: the field is not declared by the schema.
	CodeUnknownField ErrorCode = "UNKNOWN_FIELD"
)

// Error is the error type returned by every notiondb operation.
//
// Use errors.Is against the Err* sentinels to branch on the code; only
// NotFound is a normal outcome, every other code is an internal error.
type Error struct {
	Code     ErrorCode
	Property string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Property != "" {
		msg += " (" + e.Property + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrPropertyNotFound       = &Error{Code: CodePropertyNotFound}
	ErrPropertyKindMismatch   = &Error{Code: CodePropertyKindMismatch}
	ErrInvalidEnumValue       = &Error{Code: CodeInvalidEnumValue}
	ErrUnsupportedRollupShape = &Error{Code: CodeUnsupportedRollupShape}
	ErrTypeMismatch           = &Error{Code: CodeTypeMismatch}
	ErrNotFound               = &Error{Code: CodeNotFound}
	ErrPartialPageResult      = &Error{Code: CodePartialPageResult}
	ErrNotFullPage            = &Error{Code: CodeNotFullPage}
	ErrFieldNotWritable       = &Error{Code: CodeFieldNotWritable}
	ErrIdentifierIsImmutable  = &Error{Code: CodeIdentifierIsImmutable}
	ErrNonStringKey           = &Error{Code: CodeNonStringKey}
	ErrUnknownRecordType      = &Error{Code: CodeUnknownRecordType}
	ErrUnknownField           = &Error{Code: CodeUnknownField}
)

func newError(code ErrorCode, property, format string, args ...any) *Error {
	return &Error{Code: code, Property: property, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err means "no such resource": a keyed lookup
// with zero matches, or the provider rejecting an unknown object.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *notion.APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}
