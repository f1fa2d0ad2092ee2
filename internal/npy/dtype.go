package npy

// Kind identifies how a single element is laid out in memory.
type Kind int

// Element kinds. All multi-byte kinds are little-endian.
const (
	Uint8 Kind = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Uint64
	Int64
	Float32
	Float64
	// Codepoint is one Unicode code point stored as a 4-byte integer (NumPy "<U1").
	Codepoint
)

// DType describes one entry of the descriptor table.
type DType struct {
	Name  string
	Width int
	Kind  Kind
}

// CodepointDescr is the descriptor NumPy writes for one-character unicode arrays.
const CodepointDescr = "<U1"

var dtypes = map[string]DType{
	"|u1":          {Name: "uint8", Width: 1, Kind: Uint8},
	"<u1":          {Name: "uint8", Width: 1, Kind: Uint8},
	"|i1":          {Name: "int8", Width: 1, Kind: Int8},
	"<i1":          {Name: "int8", Width: 1, Kind: Int8},
	"<u2":          {Name: "uint16", Width: 2, Kind: Uint16},
	"<i2":          {Name: "int16", Width: 2, Kind: Int16},
	"<u4":          {Name: "uint32", Width: 4, Kind: Uint32},
	"<i4":          {Name: "int32", Width: 4, Kind: Int32},
	"<u8":          {Name: "uint64", Width: 8, Kind: Uint64},
	"<i8":          {Name: "int64", Width: 8, Kind: Int64},
	"<f4":          {Name: "float32", Width: 4, Kind: Float32},
	"<f8":          {Name: "float64", Width: 8, Kind: Float64},
	CodepointDescr: {Name: "unicode", Width: 4, Kind: Codepoint},
}

// LookupDType returns the table entry for a NumPy descriptor such as "<f4".
func LookupDType(descr string) (DType, bool) {
	dt, ok := dtypes[descr]

	return dt, ok
}
