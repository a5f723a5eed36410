package corpus

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType is the element type shared by every vector of a corpus.
type DType uint8

const (
	// Float32 is a little-endian 32-bit float.
	Float32 DType = iota + 1
	// Float64 is a little-endian 64-bit float.
	Float64
	// Int32 is a little-endian 32-bit signed integer.
	Int32
	// Int64 is a little-endian 64-bit signed integer.
	Int64
)

// Size returns the width of one element in bytes, or 0 for unknown types.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	default:
		return 0
	}
}

// Valid reports whether d is a supported element type.
func (d DType) Valid() bool { return d.Size() != 0 }

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(d))
	}
}

// Descr returns the NumPy array-protocol type string (e.g. "<f4").
func (d DType) Descr() string {
	switch d {
	case Float32:
		return "<f4"
	case Float64:
		return "<f8"
	case Int32:
		return "<i4"
	case Int64:
		return "<i8"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDType, uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DType) UnmarshalText(text []byte) error {
	v, err := ParseDType(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDType accepts either the Go-style name ("float32") or the NumPy
// descriptor ("<f4", "|i4" is rejected since byte order must be explicit).
func ParseDType(s string) (DType, error) {
	switch s {
	case "float32", "<f4":
		return Float32, nil
	case "float64", "<f8":
		return Float64, nil
	case "int32", "<i4":
		return Int32, nil
	case "int64", "<i8":
		return Int64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
}

// decode widens the element at b[0:Size()] to float64.
func (d DType) decode(b []byte) float64 {
	switch d {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(b)))
	default:
		return 0
	}
}

// compareElem orders two encoded elements by numeric value. Integer types
// are compared exactly rather than through float64.
func (d DType) compareElem(a, b []byte) int {
	switch d {
	case Int32:
		x, y := int32(binary.LittleEndian.Uint32(a)), int32(binary.LittleEndian.Uint32(b))
		return cmpOrdered(x, y)
	case Int64:
		x, y := int64(binary.LittleEndian.Uint64(a)), int64(binary.LittleEndian.Uint64(b))
		return cmpOrdered(x, y)
	default:
		return compareFloat(d.decode(a), d.decode(b))
	}
}

func cmpOrdered[T int32 | int64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// compareFloat sorts NaN after every number, matching NumPy's sort order.
func compareFloat(x, y float64) int {
	xNaN, yNaN := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xNaN && yNaN:
		return 0
	case xNaN:
		return 1
	case yNaN:
		return -1
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}
