// Package npy reads and writes the NumPy .npy single-array format.
//
// Voice files produced by the generation pipeline embed their JSON metadata as a
// one-character unicode array; Parse and DecodeString recover that string.
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode/utf32"
)

// Magic is the 6-byte prefix of every .npy buffer.
const Magic = "\x93NUMPY"

const (
	versionOnePreamble = 10 // magic + version + uint16 header length
	versionTwoPreamble = 12 // magic + version + uint32 header length
	headerAlignment    = 64
)

// Array is a decoded .npy buffer. Data aliases the buffer passed to Parse and
// holds exactly product(Shape) elements of DType's width, in file order.
// Fortran-ordered arrays are not transposed.
type Array struct {
	DType        string
	Shape        []int
	FortranOrder bool
	Data         []byte
}

// Len returns the number of elements implied by Shape. A scalar has one.
func (a *Array) Len() int {
	n := 1
	for _, dim := range a.Shape {
		n *= dim
	}

	return n
}

// Parse decodes a .npy buffer of format version 1, 2 or 3.
func Parse(buf []byte) (*Array, error) {
	if len(buf) < versionOnePreamble {
		return nil, headerErrorf("buffer of %d bytes is shorter than the preamble", len(buf))
	}

	if !bytes.HasPrefix(buf, []byte(Magic)) {
		return nil, headerErrorf("missing magic prefix")
	}

	var (
		headerLen int
		dataStart int
	)

	switch major := buf[6]; major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(buf[8:10]))
		dataStart = versionOnePreamble + headerLen
	case 2, 3:
		if len(buf) < versionTwoPreamble {
			return nil, headerErrorf("buffer of %d bytes is shorter than the v%d preamble", len(buf), major)
		}

		length := binary.LittleEndian.Uint32(buf[8:12])
		if uint64(length) > uint64(len(buf)) {
			return nil, headerErrorf("header length %d exceeds buffer", length)
		}

		headerLen = int(length)
		dataStart = versionTwoPreamble + headerLen
	default:
		return nil, headerErrorf("unsupported format version %d.%d", major, buf[7])
	}

	if dataStart > len(buf) {
		return nil, headerErrorf("header length %d exceeds buffer", headerLen)
	}

	raw := buf[dataStart-headerLen : dataStart]
	if !utf8.Valid(raw) {
		return nil, headerErrorf("header is not valid UTF-8")
	}

	hdr, err := parseHeader(string(raw))
	if err != nil {
		return nil, err
	}

	dt, ok := LookupDType(hdr.descr)
	if !ok {
		return nil, &UnsupportedDTypeError{Descr: hdr.descr}
	}

	rest := buf[dataStart:]

	count := 1
	for _, dim := range hdr.shape {
		if dim != 0 && count > math.MaxInt/dim {
			return nil, fmt.Errorf("%w: shape %v overflows", ErrTruncatedData, hdr.shape)
		}

		count *= dim
	}

	if count > len(rest)/dt.Width {
		return nil, fmt.Errorf("%w: shape %v needs %d bytes, have %d",
			ErrTruncatedData, hdr.shape, count*dt.Width, len(rest))
	}

	return &Array{
		DType:        hdr.descr,
		Shape:        hdr.shape,
		FortranOrder: hdr.fortranOrder,
		Data:         rest[:count*dt.Width],
	}, nil
}

// DecodeString decodes a "<U1" array as UTF-32LE text. Every element must be a
// valid Unicode scalar value, and the result must hold exactly one code point
// per element of the first dimension.
func DecodeString(a *Array) (string, error) {
	if a.DType != CodepointDescr {
		return "", fmt.Errorf("%w: want %s, have %s", ErrDTypeMismatch, CodepointDescr, a.DType)
	}

	points, err := a.Codepoints()
	if err != nil {
		return "", err
	}

	for i, point := range points {
		if !utf8.ValidRune(point) {
			return "", &InvalidCodepointError{Index: i, Value: uint32(point)}
		}
	}

	decoded, err := utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewDecoder().Bytes(a.Data)
	if err != nil {
		return "", fmt.Errorf("npy: decoding utf-32: %w", err)
	}

	want := 1
	if len(a.Shape) > 0 {
		want = a.Shape[0]
	}

	if got := utf8.RuneCount(decoded); got != want {
		return "", &LengthMismatchError{Want: want, Got: got}
	}

	return string(decoded), nil
}

// EncodeString writes s as a version 1 "<U1" array of shape (n,).
func EncodeString(s string) ([]byte, error) {
	data, err := utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("npy: encoding utf-32: %w", err)
	}

	shape := fmt.Sprintf("(%d,)", len(data)/4)

	return Encode(CodepointDescr, shape, data)
}

// Encode writes a version 1 buffer around already little-endian element data.
// shape is the Python tuple literal, e.g. "(2, 3)".
func Encode(descr, shape string, data []byte) ([]byte, error) {
	dt, ok := LookupDType(descr)
	if !ok {
		return nil, &UnsupportedDTypeError{Descr: descr}
	}

	if len(data)%dt.Width != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrTruncatedData, len(data), dt.Width)
	}

	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shape)

	// Pad with spaces so the element data starts on an aligned offset; the
	// header always ends in a newline.
	total := versionOnePreamble + len(dict) + 1
	padding := (headerAlignment - total%headerAlignment) % headerAlignment
	hdr := dict + strings.Repeat(" ", padding) + "\n"

	if len(hdr) > math.MaxUint16 {
		return nil, headerErrorf("header of %d bytes does not fit version 1", len(hdr))
	}

	var buf bytes.Buffer

	buf.Grow(versionOnePreamble + len(hdr) + len(data))
	buf.WriteString(Magic)
	buf.Write([]byte{1, 0})
	buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(len(hdr))))
	buf.WriteString(hdr)
	buf.Write(data)

	return buf.Bytes(), nil
}
