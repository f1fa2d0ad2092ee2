package npy_test

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/book-expert/tts-utils/internal/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildNPY assembles a raw buffer without going through npy.Encode so the
// reader is exercised against hand-written headers.
func buildNPY(major byte, header string, data []byte) []byte {
	buf := []byte(npy.Magic)
	buf = append(buf, major, 0)

	if major == 1 {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(header)))
	} else {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(header)))
	}

	buf = append(buf, header...)

	return append(buf, data...)
}

func le32(values ...uint32) []byte {
	var out []byte
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, v)
	}

	return out
}

func TestDecodeString_CodepointFixture(t *testing.T) {
	t.Parallel()

	buf := buildNPY(1, "{'descr': '<U1', 'fortran_order': False, 'shape': (3,), }\n", le32(65, 66, 28450))

	arr, err := npy.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, "<U1", arr.DType)
	assert.Equal(t, []int{3}, arr.Shape)
	assert.False(t, arr.FortranOrder)

	decoded, err := npy.DecodeString(arr)
	require.NoError(t, err)
	assert.Equal(t, "AB漢", decoded)
}

func TestParse_DTypeTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		descr string
		data  []byte
		check func(t *testing.T, arr *npy.Array)
	}{
		{"|u1", []byte{0, 7, 255}, func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Uint8s()
			require.NoError(t, err)
			assert.Equal(t, []uint8{0, 7, 255}, v)
		}},
		{"<u1", []byte{1, 2, 3}, func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Uint8s()
			require.NoError(t, err)
			assert.Equal(t, []uint8{1, 2, 3}, v)
		}},
		{"|i1", []byte{0x80, 0xff, 0x7f}, func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Int8s()
			require.NoError(t, err)
			assert.Equal(t, []int8{-128, -1, 127}, v)
		}},
		{"<i1", []byte{0xfe, 0, 5}, func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Int8s()
			require.NoError(t, err)
			assert.Equal(t, []int8{-2, 0, 5}, v)
		}},
		{"<u2", []byte{1, 0, 0xff, 0xff, 0, 1}, func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Uint16s()
			require.NoError(t, err)
			assert.Equal(t, []uint16{1, 65535, 256}, v)
		}},
		{"<i2", []byte{0xff, 0xff, 0, 0x80, 2, 0}, func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Int16s()
			require.NoError(t, err)
			assert.Equal(t, []int16{-1, -32768, 2}, v)
		}},
		{"<u4", le32(0, 70000, math.MaxUint32), func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Uint32s()
			require.NoError(t, err)
			assert.Equal(t, []uint32{0, 70000, math.MaxUint32}, v)
		}},
		{"<i4", le32(uint32(0xffffffff), 42, 0x80000000), func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Int32s()
			require.NoError(t, err)
			assert.Equal(t, []int32{-1, 42, math.MinInt32}, v)
		}},
		{"<u8", le64(1, 1<<40, math.MaxUint64), func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Uint64s()
			require.NoError(t, err)
			assert.Equal(t, []uint64{1, 1 << 40, math.MaxUint64}, v)
		}},
		{"<i8", le64(math.MaxUint64, 9, 1<<63), func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Int64s()
			require.NoError(t, err)
			assert.Equal(t, []int64{-1, 9, math.MinInt64}, v)
		}},
		{"<f4", le32(math.Float32bits(1.5), math.Float32bits(-0.25), math.Float32bits(3)), func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Float32s()
			require.NoError(t, err)
			assert.Equal(t, []float32{1.5, -0.25, 3}, v)
		}},
		{"<f8", le64(math.Float64bits(2.5), math.Float64bits(-1e10), math.Float64bits(0)), func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Float64s()
			require.NoError(t, err)
			assert.Equal(t, []float64{2.5, -1e10, 0}, v)
		}},
		{"<U1", le32('x', 'y', 0x1F600), func(t *testing.T, arr *npy.Array) {
			t.Helper()
			v, err := arr.Codepoints()
			require.NoError(t, err)
			assert.Equal(t, []rune{'x', 'y', 0x1F600}, v)
		}},
	}

	covered := make(map[string]bool)

	for _, testCase := range tests {
		covered[testCase.descr] = true

		t.Run(testCase.descr, func(t *testing.T) {
			t.Parallel()

			buf, err := npy.Encode(testCase.descr, "(3,)", testCase.data)
			require.NoError(t, err)

			arr, err := npy.Parse(buf)
			require.NoError(t, err)
			assert.Equal(t, testCase.descr, arr.DType)
			assert.Equal(t, 3, arr.Len())
			testCase.check(t, arr)
		})
	}

	for _, descr := range npy.Descriptors() {
		assert.True(t, covered[descr], "descriptor %s has no round-trip case", descr)
	}
}

func le64(values ...uint64) []byte {
	var out []byte
	for _, v := range values {
		out = binary.LittleEndian.AppendUint64(out, v)
	}

	return out
}

func TestParse_HeaderGrammar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		header    string
		data      []byte
		wantShape []int
		fortran   bool
	}{
		{
			name:      "one-tuple",
			header:    "{'descr': '<u1', 'fortran_order': False, 'shape': (5,), }      \n",
			data:      make([]byte, 5),
			wantShape: []int{5},
		},
		{
			name:      "scalar",
			header:    "{'descr': '<i4', 'fortran_order': False, 'shape': (), }\n",
			data:      le32(7),
			wantShape: []int{},
		},
		{
			name:      "two dimensions fortran",
			header:    "{'descr': '<u2', 'fortran_order': True, 'shape': (2, 3), }\n",
			data:      make([]byte, 12),
			wantShape: []int{2, 3},
			fortran:   true,
		},
		{
			name:      "double quotes without trailing comma",
			header:    `{"descr": "<u1", "shape": (2,), "fortran_order": False}`,
			data:      []byte{1, 2},
			wantShape: []int{2},
		},
		{
			name:      "long suffix and unknown key",
			header:    "{'descr': '|u1', 'fortran_order': False, 'shape': (4L,), 'extra': 1}\n",
			data:      make([]byte, 4),
			wantShape: []int{4},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			arr, err := npy.Parse(buildNPY(1, testCase.header, testCase.data))
			require.NoError(t, err)
			assert.Equal(t, testCase.wantShape, arr.Shape)
			assert.Equal(t, testCase.fortran, arr.FortranOrder)
			assert.Equal(t, testCase.data, arr.Data)
		})
	}
}

func TestParse_VersionTwoHeader(t *testing.T) {
	t.Parallel()

	buf := buildNPY(2, "{'descr': '<u1', 'fortran_order': False, 'shape': (3,), }\n", []byte{9, 8, 7})

	arr, err := npy.Parse(buf)
	require.NoError(t, err)

	values, err := arr.Uint8s()
	require.NoError(t, err)
	assert.Equal(t, []uint8{9, 8, 7}, values)
}

func TestParse_IgnoresTrailingBytes(t *testing.T) {
	t.Parallel()

	buf := buildNPY(1, "{'descr': '<u1', 'fortran_order': False, 'shape': (2,), }", []byte{1, 2, 3, 4})

	arr, err := npy.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, arr.Data)
}

func TestParse_HeaderErrors(t *testing.T) {
	t.Parallel()

	valid := "{'descr': '<u1', 'fortran_order': False, 'shape': (1,), }"

	tests := []struct {
		name string
		buf  []byte
	}{
		{"short buffer", []byte(npy.Magic)},
		{"bad magic", append([]byte("\x93NUMPX\x01\x00\x00\x00"), valid...)},
		{"unknown version", buildNPY(4, valid, []byte{1})},
		{"header longer than buffer", append([]byte(npy.Magic), 1, 0, 0xff, 0x00)},
		{"not a dict", buildNPY(1, "['descr']", nil)},
		{"missing shape", buildNPY(1, "{'descr': '<u1', 'fortran_order': False}", []byte{1})},
		{"descr not a string", buildNPY(1, "{'descr': 5, 'fortran_order': False, 'shape': (1,)}", []byte{1})},
		{"fortran not a bool", buildNPY(1, "{'descr': '<u1', 'fortran_order': 0, 'shape': (1,)}", []byte{1})},
		{"unterminated list", buildNPY(1, "{'descr': [('a', '<u1')", []byte{1})},
		{"unterminated string", buildNPY(1, "{'descr: '<u1'", nil)},
		{"trailing garbage", buildNPY(1, valid+" x", []byte{1})},
		{"duplicate key", buildNPY(1, "{'descr': '<u1', 'descr': '<u1', 'fortran_order': False, 'shape': (1,)}", []byte{1})},
		{"negative dimension", buildNPY(1, "{'descr': '<u1', 'fortran_order': False, 'shape': (-1,)}", nil)},
		{"non-numeric dimension", buildNPY(1, "{'descr': '<u1', 'fortran_order': False, 'shape': (a,)}", nil)},
		{"invalid utf-8", buildNPY(1, "{'descr': '\xff', 'fortran_order': False, 'shape': (1,)}", []byte{1})},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := npy.Parse(testCase.buf)
			require.ErrorIs(t, err, npy.ErrHeaderParse)

			var headerErr *npy.HeaderParseError
			require.ErrorAs(t, err, &headerErr)
			assert.NotEmpty(t, headerErr.Reason)
		})
	}
}

func TestParse_UnsupportedDType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		descr string
	}{
		{"complex", "'<c16'"},
		{"big endian", "'>f4'"},
		{"structured", "[('a', '<i4'), ('b', '<f8', (2,))]"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			header := "{'descr': " + testCase.descr + ", 'fortran_order': False, 'shape': (1,), }"

			_, err := npy.Parse(buildNPY(1, header, make([]byte, 16)))
			require.ErrorIs(t, err, npy.ErrUnsupportedDType)
			require.NotErrorIs(t, err, npy.ErrHeaderParse)

			var dtypeErr *npy.UnsupportedDTypeError
			require.ErrorAs(t, err, &dtypeErr)
			assert.Equal(t, strings.Trim(testCase.descr, "'"), dtypeErr.Descr)
		})
	}
}

func TestParse_TruncatedData(t *testing.T) {
	t.Parallel()

	buf := buildNPY(1, "{'descr': '<f4', 'fortran_order': False, 'shape': (3,), }", make([]byte, 11))

	_, err := npy.Parse(buf)
	require.ErrorIs(t, err, npy.ErrTruncatedData)
}

func TestDecodeString_LengthMismatch(t *testing.T) {
	t.Parallel()

	buf := buildNPY(1, "{'descr': '<U1', 'fortran_order': False, 'shape': (2, 2), }", le32('a', 'b', 'c', 'd'))

	arr, err := npy.Parse(buf)
	require.NoError(t, err)

	_, err = npy.DecodeString(arr)
	require.ErrorIs(t, err, npy.ErrLengthMismatch)

	var lengthErr *npy.LengthMismatchError
	require.True(t, errors.As(err, &lengthErr))
	assert.Equal(t, 2, lengthErr.Want)
	assert.Equal(t, 4, lengthErr.Got)
}

func TestDecodeString_InvalidCodepoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      []byte
		wantIndex int
		wantValue uint32
	}{
		{"lone high surrogate", le32('A', 0xD800), 1, 0xD800},
		{"low surrogate", le32(0xDFFF, 'B'), 0, 0xDFFF},
		{"above unicode range", le32('A', 0x110000), 1, 0x110000},
		{"all bits set", le32('A', 0xFFFFFFFF), 1, 0xFFFFFFFF},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			buf := buildNPY(1, "{'descr': '<U1', 'fortran_order': False, 'shape': (2,), }\n", testCase.data)

			arr, err := npy.Parse(buf)
			require.NoError(t, err)

			decoded, err := npy.DecodeString(arr)
			require.ErrorIs(t, err, npy.ErrInvalidCodepoint)
			assert.Empty(t, decoded)

			var pointErr *npy.InvalidCodepointError
			require.ErrorAs(t, err, &pointErr)
			assert.Equal(t, testCase.wantIndex, pointErr.Index)
			assert.Equal(t, testCase.wantValue, pointErr.Value)
		})
	}
}

func TestView_ShortData(t *testing.T) {
	t.Parallel()

	arr := &npy.Array{DType: "<u4", Shape: []int{2}, Data: le32(1)}

	_, err := arr.Uint32s()
	require.ErrorIs(t, err, npy.ErrTruncatedData)
}

func TestDecodeString_WrongDType(t *testing.T) {
	t.Parallel()

	buf, err := npy.Encode("<u4", "(1,)", le32(65))
	require.NoError(t, err)

	arr, err := npy.Parse(buf)
	require.NoError(t, err)

	_, err = npy.DecodeString(arr)
	require.ErrorIs(t, err, npy.ErrDTypeMismatch)

	_, err = arr.Float32s()
	require.ErrorIs(t, err, npy.ErrDTypeMismatch)
}

func TestEncodeString_RoundTrip(t *testing.T) {
	t.Parallel()

	input := `{"prompt": "héllo wörld 😀", "seed": 42}`

	buf, err := npy.EncodeString(input)
	require.NoError(t, err)

	headerLen := int(binary.LittleEndian.Uint16(buf[8:10]))
	assert.Zero(t, (10+headerLen)%64, "element data should start on a 64-byte boundary")
	assert.Equal(t, byte('\n'), buf[10+headerLen-1])

	arr, err := npy.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, []int{len([]rune(input))}, arr.Shape)

	decoded, err := npy.DecodeString(arr)
	require.NoError(t, err)
	assert.Equal(t, input, decoded)
}

func TestEncodeString_Empty(t *testing.T) {
	t.Parallel()

	buf, err := npy.EncodeString("")
	require.NoError(t, err)

	arr, err := npy.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, arr.Shape)

	decoded, err := npy.DecodeString(arr)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestEncode_Errors(t *testing.T) {
	t.Parallel()

	_, err := npy.Encode("<c8", "(1,)", make([]byte, 8))
	require.ErrorIs(t, err, npy.ErrUnsupportedDType)

	_, err = npy.Encode("<u4", "(1,)", make([]byte, 3))
	require.ErrorIs(t, err, npy.ErrTruncatedData)
}
