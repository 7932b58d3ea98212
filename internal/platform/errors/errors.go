// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode defines supported error codes used across services
// Values are stable for wire compatibility; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware
	ErrorCodePanic

	// ErrorCodeUnavailable is for transient errors where retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeUnauthorized is for auth/token failures
	ErrorCodeUnauthorized

	// ErrorCodeInvalidArgument is for bad input parameters
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for validation failures (input data)
	ErrorCodeValidation

	// ErrorCodeNotFound is for missing resources
	ErrorCodeNotFound

	// Resolution outcomes. Each is a distinct, recoverable result of plan
	// building; batch callers aggregate these per detector instead of
	// aborting the whole run.

	// ErrorCodeUnmappedEpoch is for GPS times outside every known observing run
	ErrorCodeUnmappedEpoch

	// ErrorCodeCalibrationUnavailable is for runs with no calibration support (O1)
	ErrorCodeCalibrationUnavailable

	// ErrorCodeUnsupportedDetector is for detectors with no strategy for the
	// requested source type (K1 with no override, V1/K1 under public DCC)
	ErrorCodeUnsupportedDetector

	// ErrorCodeInvalidSourceType is for override strings outside the recognized set
	ErrorCodeInvalidSourceType

	// ErrorCodeMissingVersion is for per-detector version maps lacking an entry
	ErrorCodeMissingVersion

	// ErrorCodeMissingDirectory is for absent required path parameters
	ErrorCodeMissingDirectory

	// ErrorCodeMissingAnalysisLabel is for ambiguous multi-analysis metafiles
	ErrorCodeMissingAnalysisLabel
)

// HTTPStatusCode turns an ErrorCode into an http status code
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound, ErrorCodeUnmappedEpoch, ErrorCodeCalibrationUnavailable:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument, ErrorCodeInvalidSourceType, ErrorCodeUnsupportedDetector:
		return http.StatusUnprocessableEntity
	case ErrorCodeValidation, ErrorCodeMissingVersion, ErrorCodeMissingDirectory, ErrorCodeMissingAnalysisLabel:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodePanic, ErrorCodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// detector is optional (resolution outcomes); op is optional operation tag
// orig is the wrapped cause
type Error struct {
	orig     error
	msg      string
	code     ErrorCode
	detector string
	op       string
}

// Wire is the JSON-serializable form returned by the API
type Wire struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Detector string    `json:"detector,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Detector returns the detector the outcome applies to, if any
func (e *Error) Detector() string { return e.detector }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// ToWire converts an *Error to a Wire payload
func (e *Error) ToWire() Wire { return Wire{Code: e.code, Message: e.msg, Detector: e.detector} }

// WireFrom converts any error into a Wire payload with best-effort mapping
// If err is nil, returns the zero-value Wire (no error)
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithDetector attaches a detector to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithDetector(err error, detector string) error {
	if e, ok := As(err); ok {
		c := *e
		c.detector = detector
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil (helper for 1-liners)
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// PanicErrf returns a panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Unauthorizedf returns an unauthorized error
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }

// UnmappedEpochf returns an unmapped epoch outcome
func UnmappedEpochf(format string, a ...any) error { return Newf(ErrorCodeUnmappedEpoch, format, a...) }

// CalibrationUnavailablef returns a calibration unavailable outcome
func CalibrationUnavailablef(format string, a ...any) error {
	return Newf(ErrorCodeCalibrationUnavailable, format, a...)
}

// UnsupportedDetectorf returns an unsupported detector outcome
func UnsupportedDetectorf(format string, a ...any) error {
	return Newf(ErrorCodeUnsupportedDetector, format, a...)
}

// InvalidSourceTypef returns an invalid source type outcome
func InvalidSourceTypef(format string, a ...any) error {
	return Newf(ErrorCodeInvalidSourceType, format, a...)
}

// MissingVersionf returns a missing version outcome
func MissingVersionf(format string, a ...any) error {
	return Newf(ErrorCodeMissingVersion, format, a...)
}

// MissingDirectoryf returns a missing directory outcome
func MissingDirectoryf(format string, a ...any) error {
	return Newf(ErrorCodeMissingDirectory, format, a...)
}

// MissingAnalysisLabelf returns a missing analysis label outcome
func MissingAnalysisLabelf(format string, a ...any) error {
	return Newf(ErrorCodeMissingAnalysisLabel, format, a...)
}

// HTTP bundles status + wire in one shot (nice for handlers)
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	return HTTPStatus(err), WireFrom(err)
}

// Retryable reports whether the error is transient enough that the I/O layer
// may retry. Resolution outcomes are never retryable; the resolver is pure
func Retryable(err error) bool { return IsCode(err, ErrorCodeUnavailable) }
