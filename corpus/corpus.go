package corpus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Corpus is an immutable, ordered sequence of vectors sharing one dimension
// and one element type.
type Corpus struct {
	dtype DType
	dim   int
	n     int
	data  []byte
}

// Empty returns a corpus with zero rows. Its buffer is nil.
func Empty(dtype DType, dim int) *Corpus {
	return &Corpus{dtype: dtype, dim: dim}
}

// FromBytes builds a corpus over a row-major buffer of little-endian
// elements. The buffer is copied. A zero dim is only accepted for an empty
// buffer.
func FromBytes(dtype DType, dim int, data []byte) (*Corpus, error) {
	if !dtype.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDType, uint8(dtype))
	}
	rowSize := dim * dtype.Size()
	if dim < 0 || (dim == 0 && len(data) > 0) {
		return nil, &InputShapeError{Row: -1, Expected: rowSize, Actual: len(data)}
	}
	if len(data) == 0 {
		return Empty(dtype, dim), nil
	}
	if len(data)%rowSize != 0 {
		return nil, &InputShapeError{Row: -1, Expected: rowSize, Actual: len(data)}
	}

	owned := make([]byte, len(data))
	copy(owned, data)

	return &Corpus{
		dtype: dtype,
		dim:   dim,
		n:     len(data) / rowSize,
		data:  owned,
	}, nil
}

// FromFloat32 encodes rows as a Float32 corpus.
func FromFloat32(rows [][]float32) (*Corpus, error) {
	return fromRows(Float32, rows, func(dst []byte, v float32) {
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	})
}

// FromFloat64 encodes rows as a Float64 corpus.
func FromFloat64(rows [][]float64) (*Corpus, error) {
	return fromRows(Float64, rows, func(dst []byte, v float64) {
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	})
}

// FromInt32 encodes rows as an Int32 corpus.
func FromInt32(rows [][]int32) (*Corpus, error) {
	return fromRows(Int32, rows, func(dst []byte, v int32) {
		binary.LittleEndian.PutUint32(dst, uint32(v))
	})
}

// FromInt64 encodes rows as an Int64 corpus.
func FromInt64(rows [][]int64) (*Corpus, error) {
	return fromRows(Int64, rows, func(dst []byte, v int64) {
		binary.LittleEndian.PutUint64(dst, uint64(v))
	})
}

func fromRows[T any](dtype DType, rows [][]T, put func([]byte, T)) (*Corpus, error) {
	if len(rows) == 0 {
		return Empty(dtype, 0), nil
	}
	dim := len(rows[0])
	if dim == 0 {
		return nil, &InputShapeError{Row: 0, Expected: 1, Actual: 0}
	}

	size := dtype.Size()
	data := make([]byte, len(rows)*dim*size)
	off := 0
	for i, row := range rows {
		if len(row) != dim {
			return nil, &InputShapeError{Row: i, Expected: dim, Actual: len(row)}
		}
		for _, v := range row {
			put(data[off:off+size], v)
			off += size
		}
	}

	return &Corpus{dtype: dtype, dim: dim, n: len(rows), data: data}, nil
}

// Len returns the number of rows.
func (c *Corpus) Len() int { return c.n }

// Dim returns the number of components per row.
func (c *Corpus) Dim() int { return c.dim }

// DType returns the element type.
func (c *Corpus) DType() DType { return c.dtype }

// Shape returns [rows, dim].
func (c *Corpus) Shape() []int { return []int{c.n, c.dim} }

// RowSize returns the width of one row in bytes.
func (c *Corpus) RowSize() int { return c.dim * c.dtype.Size() }

// Nbytes returns the size of the row buffer in bytes.
func (c *Corpus) Nbytes() int { return len(c.data) }

// Bytes returns the exact row-major serialization of the corpus.
// The returned slice must not be modified.
func (c *Corpus) Bytes() []byte { return c.data }

// Row returns the exact bytes of row i. The returned slice must not be
// modified. Panics if i is out of range.
func (c *Corpus) Row(i int) []byte {
	rs := c.RowSize()
	return c.data[i*rs : (i+1)*rs : (i+1)*rs]
}

// RowEqual reports whether rows i and j are byte-identical.
func (c *Corpus) RowEqual(i, j int) bool {
	return bytes.Equal(c.Row(i), c.Row(j))
}

// Float64Row returns a widened copy of row i.
func (c *Corpus) Float64Row(i int) []float64 {
	return c.AppendFloat64Row(make([]float64, 0, c.dim), i)
}

// AppendFloat64Row appends the widened components of row i to dst.
func (c *Corpus) AppendFloat64Row(dst []float64, i int) []float64 {
	row := c.Row(i)
	size := c.dtype.Size()
	for off := 0; off < len(row); off += size {
		dst = append(dst, c.dtype.decode(row[off:off+size]))
	}
	return dst
}

// Float32s decodes the whole buffer into one flat slice, narrowing wider
// element types.
func (c *Corpus) Float32s() []float32 {
	size := c.dtype.Size()
	out := make([]float32, 0, c.n*c.dim)
	for off := 0; off < len(c.data); off += size {
		out = append(out, float32(c.dtype.decode(c.data[off:off+size])))
	}
	return out
}

// Float64Rows widens the whole corpus into one backing array.
func (c *Corpus) Float64Rows() [][]float64 {
	backing := make([]float64, 0, c.n*c.dim)
	out := make([][]float64, c.n)
	for i := range c.n {
		start := len(backing)
		backing = c.AppendFloat64Row(backing, i)
		out[i] = backing[start:len(backing):len(backing)]
	}
	return out
}

// CompareRows orders rows i and j lexicographically by component value.
// Rows with equal values but different bytes (e.g. 0.0 and -0.0) are
// ordered by their raw bytes so the order is total.
func (c *Corpus) CompareRows(i, j int) int {
	a, b := c.Row(i), c.Row(j)
	size := c.dtype.Size()
	for off := 0; off < len(a); off += size {
		if r := c.dtype.compareElem(a[off:off+size], b[off:off+size]); r != 0 {
			return r
		}
	}
	return bytes.Compare(a, b)
}

// Gather returns a new corpus made of the given rows, in the given order.
func (c *Corpus) Gather(indices []int) (*Corpus, error) {
	b := NewBuilder(c.dtype, c.dim, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= c.n {
			return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, idx, c.n)
		}
		b.appendRow(c.Row(idx))
	}
	return b.Build(), nil
}

// Equal reports whether both corpora have the same shape, dtype and bytes.
func (c *Corpus) Equal(other *Corpus) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.dtype == other.dtype &&
		c.n == other.n &&
		(c.n == 0 || c.dim == other.dim) &&
		bytes.Equal(c.data, other.data)
}
