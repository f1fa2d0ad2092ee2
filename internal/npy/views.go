package npy

import (
	"encoding/binary"
	"fmt"
	"math"
)

func view[T any](a *Array, kind Kind, decode func([]byte) T) ([]T, error) {
	dt, ok := LookupDType(a.DType)
	if !ok {
		return nil, &UnsupportedDTypeError{Descr: a.DType}
	}

	if dt.Kind != kind {
		return nil, fmt.Errorf("%w: %s holds %s", ErrDTypeMismatch, a.DType, dt.Name)
	}

	n := a.Len()
	if len(a.Data) < n*dt.Width {
		return nil, fmt.Errorf("%w: shape %v needs %d bytes, have %d", ErrTruncatedData, a.Shape, n*dt.Width, len(a.Data))
	}

	out := make([]T, n)
	for i := range out {
		out[i] = decode(a.Data[i*dt.Width : (i+1)*dt.Width])
	}

	return out, nil
}

// Uint8s returns the elements of a uint8 array.
func (a *Array) Uint8s() ([]uint8, error) {
	return view(a, Uint8, func(b []byte) uint8 { return b[0] })
}

// Int8s returns the elements of an int8 array.
func (a *Array) Int8s() ([]int8, error) {
	return view(a, Int8, func(b []byte) int8 { return int8(b[0]) })
}

// Uint16s returns the elements of a uint16 array.
func (a *Array) Uint16s() ([]uint16, error) {
	return view(a, Uint16, binary.LittleEndian.Uint16)
}

// Int16s returns the elements of an int16 array.
func (a *Array) Int16s() ([]int16, error) {
	return view(a, Int16, func(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) })
}

// Uint32s returns the elements of a uint32 array.
func (a *Array) Uint32s() ([]uint32, error) {
	return view(a, Uint32, binary.LittleEndian.Uint32)
}

// Int32s returns the elements of an int32 array.
func (a *Array) Int32s() ([]int32, error) {
	return view(a, Int32, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })
}

// Uint64s returns the elements of a uint64 array.
func (a *Array) Uint64s() ([]uint64, error) {
	return view(a, Uint64, binary.LittleEndian.Uint64)
}

// Int64s returns the elements of an int64 array.
func (a *Array) Int64s() ([]int64, error) {
	return view(a, Int64, func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })
}

// Float32s returns the elements of a float32 array.
func (a *Array) Float32s() ([]float32, error) {
	return view(a, Float32, func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) })
}

// Float64s returns the elements of a float64 array.
func (a *Array) Float64s() ([]float64, error) {
	return view(a, Float64, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })
}

// Codepoints returns the raw code points of a "<U1" array without validating them.
func (a *Array) Codepoints() ([]rune, error) {
	return view(a, Codepoint, func(b []byte) rune { return rune(binary.LittleEndian.Uint32(b)) })
}
