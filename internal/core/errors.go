package core

// errors.go defines the structured error carried by every failure path.
//
// Errors are created once, at the point where the failure is detected, with a
// precise ErrorType tag. Outer boundaries call Coalesce, which passes an
// existing *Error through untouched and classifies anything else.
//
// # Error Types
//
// Input errors:
//
//	INVALID_CSV       - csv text absent, empty, or without data rows
//	PARSE_ERROR       - csv text could not be tokenized
//	EMPTY_DATA        - aggregation input has no data
//
// Argument errors:
//
//	INVALID_COLUMN    - named column does not exist
//	INVALID_METHOD    - unknown cleaning or aggregation method
//	MISSING_COLUMN    - method requires a column
//	MISSING_TYPE      - method requires a target type
//	INVALID_TYPE      - target type not supported by the method
//	MISSING_VALUE     - method requires a value
//	INVALID_VALUE     - value or limit has the wrong shape
//
// Operation errors:
//
//	INVALID_OPERATION - statistic requested on non-numeric data
//	INVALID_DATA_TYPE - aggregation column is not numeric
//	EMPTY_COLUMN      - column has no values to compute a mode from
//	EMPTY_DATASET     - table has no values to compute modes from
//	REPLACE_ERROR     - replacement values are blank
//	TYPECAST_ERROR    - coercion failed
//	UNKNOWN_ERROR     - anything not anticipated

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// ErrorType tags a structured error.
type ErrorType string

const (
	ErrInvalidCSV       ErrorType = "INVALID_CSV"
	ErrParse            ErrorType = "PARSE_ERROR"
	ErrInvalidColumn    ErrorType = "INVALID_COLUMN"
	ErrInvalidMethod    ErrorType = "INVALID_METHOD"
	ErrMissingColumn    ErrorType = "MISSING_COLUMN"
	ErrMissingType      ErrorType = "MISSING_TYPE"
	ErrInvalidType      ErrorType = "INVALID_TYPE"
	ErrMissingValue     ErrorType = "MISSING_VALUE"
	ErrInvalidValue     ErrorType = "INVALID_VALUE"
	ErrInvalidOperation ErrorType = "INVALID_OPERATION"
	ErrEmptyColumn      ErrorType = "EMPTY_COLUMN"
	ErrEmptyDataset     ErrorType = "EMPTY_DATASET"
	ErrReplace          ErrorType = "REPLACE_ERROR"
	ErrTypecast         ErrorType = "TYPECAST_ERROR"
	ErrInvalidDataType  ErrorType = "INVALID_DATA_TYPE"
	ErrEmptyData        ErrorType = "EMPTY_DATA"
	ErrUnknown          ErrorType = "UNKNOWN_ERROR"

	// Raised by callers of the engine rather than the engine itself.
	ErrJSONParse     ErrorType = "JSON_PARSE_ERROR"
	ErrMissingData   ErrorType = "MISSING_DATA"
	ErrServerBusy    ErrorType = "SERVER_BUSY"
	ErrInvalidReq    ErrorType = "INVALID_REQUEST"
	ErrInvalidFile   ErrorType = "INVALID_FILE"
	ErrInvalidOption ErrorType = "INVALID_JSON_OR_OPTIONS"
	ErrSystem        ErrorType = "SYSTEM_ERROR"
	ErrTooLarge      ErrorType = "PAYLOAD_TOO_LARGE"
	ErrRateLimited   ErrorType = "RATE_LIMITED"
	ErrMissingKey    ErrorType = "AUTH_MISSING_KEY"
	ErrInvalidKey    ErrorType = "AUTH_INVALID_KEY"
)

// Error is the structured failure returned by every operation.
type Error struct {
	Type    ErrorType
	Message string
	Details *string // nil when there is nothing more to say
}

func (e *Error) Error() string {
	if e.Details != nil && *e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, *e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// DetailText returns the details or "" when absent.
func (e *Error) DetailText() string {
	if e.Details == nil {
		return ""
	}
	return *e.Details
}

// NewError creates an Error without details.
func NewError(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// NewErrorDetails creates an Error carrying details.
func NewErrorDetails(t ErrorType, message, details string) *Error {
	return &Error{Type: t, Message: message, Details: &details}
}

// IsType reports whether err is a structured error with the given tag.
func IsType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// errorMatcher maps a recognizable technical failure to a tag.
type errorMatcher struct {
	match   func(error) bool
	typ     ErrorType
	message string
}

// errorMatchers is consulted in order; the first match wins.
var errorMatchers = []errorMatcher{
	{
		match: func(err error) bool {
			var pe *csv.ParseError
			return errors.As(err, &pe)
		},
		typ:     ErrParse,
		message: "Failed to parse CSV data",
	},
	{
		match: func(err error) bool {
			return strings.Contains(strings.ToLower(err.Error()), "wrong number of fields")
		},
		typ:     ErrParse,
		message: "Failed to parse CSV data",
	},
}

// Coalesce converts any error into a structured *Error.
//
// An error that already is (or wraps) an *Error is returned unchanged, so a
// failure is never wrapped twice. Recognizable technical errors get their
// specific tag; everything else becomes fallback with message and the original
// text as details.
func Coalesce(err error, fallback ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	for _, m := range errorMatchers {
		if m.match(err) {
			return NewErrorDetails(m.typ, m.message, err.Error())
		}
	}

	return NewErrorDetails(fallback, message, err.Error())
}

// recoverAs turns a recovered panic value into an error for Coalesce.
func recoverAs(r any) error {
	switch v := r.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%v", v)
	}
}
