package npy

import (
	"errors"
	"fmt"
)

// Sentinel errors you can compare with errors.Is.
var (
	// ErrHeaderParse matches any *HeaderParseError.
	ErrHeaderParse = errors.New("npy: invalid header")
	// ErrUnsupportedDType matches any *UnsupportedDTypeError.
	ErrUnsupportedDType = errors.New("npy: unsupported dtype")
	// ErrLengthMismatch matches any *LengthMismatchError.
	ErrLengthMismatch = errors.New("npy: decoded length does not match shape")
	// ErrTruncatedData indicates the buffer holds fewer element bytes than the shape requires.
	ErrTruncatedData = errors.New("npy: element data shorter than shape")
	// ErrInvalidCodepoint matches any *InvalidCodepointError.
	ErrInvalidCodepoint = errors.New("npy: invalid unicode code point")
	// ErrDTypeMismatch indicates a typed view was requested for an array of another kind.
	ErrDTypeMismatch = errors.New("npy: dtype does not match requested view")
)

// HeaderParseError is returned when the preamble or the dict-literal header
// cannot be read.
type HeaderParseError struct {
	Reason string
}

func (e *HeaderParseError) Error() string {
	return "npy: invalid header: " + e.Reason
}

// Is reports whether target is ErrHeaderParse.
func (e *HeaderParseError) Is(target error) bool {
	return target == ErrHeaderParse
}

// UnsupportedDTypeError is returned when the header's descr is not in the dtype table.
type UnsupportedDTypeError struct {
	Descr string
}

func (e *UnsupportedDTypeError) Error() string {
	return fmt.Sprintf("npy: unsupported dtype %q", e.Descr)
}

// Is reports whether target is ErrUnsupportedDType.
func (e *UnsupportedDTypeError) Is(target error) bool {
	return target == ErrUnsupportedDType
}

// LengthMismatchError is returned when a decoded string does not hold one code
// point per declared element.
type LengthMismatchError struct {
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("npy: decoded %d code points, shape declares %d", e.Got, e.Want)
}

// Is reports whether target is ErrLengthMismatch.
func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// InvalidCodepointError is returned when a "<U1" element is a surrogate or
// lies above U+10FFFF.
type InvalidCodepointError struct {
	Index int
	Value uint32
}

func (e *InvalidCodepointError) Error() string {
	return fmt.Sprintf("npy: element %d holds invalid code point 0x%X", e.Index, e.Value)
}

// Is reports whether target is ErrInvalidCodepoint.
func (e *InvalidCodepointError) Is(target error) bool {
	return target == ErrInvalidCodepoint
}

func headerErrorf(format string, args ...any) error {
	return &HeaderParseError{Reason: fmt.Sprintf(format, args...)}
}
