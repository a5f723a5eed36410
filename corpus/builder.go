package corpus

import "fmt"

// Builder accumulates rows into a new Corpus.
// A Builder must not be used after Build.
type Builder struct {
	dtype DType
	dim   int
	n     int
	data  []byte
}

// NewBuilder creates a builder with room for capacity rows.
func NewBuilder(dtype DType, dim, capacity int) *Builder {
	return &Builder{
		dtype: dtype,
		dim:   dim,
		data:  make([]byte, 0, capacity*dim*dtype.Size()),
	}
}

// AppendRow copies one encoded row into the builder.
func (b *Builder) AppendRow(row []byte) error {
	rs := b.dim * b.dtype.Size()
	if len(row) != rs {
		return &InputShapeError{Row: b.n, Expected: b.dim, Actual: len(row) / max(b.dtype.Size(), 1)}
	}
	b.appendRow(row)
	return nil
}

// AppendRepeated appends row count times.
func (b *Builder) AppendRepeated(row []byte, count int) error {
	if count < 0 {
		return fmt.Errorf("corpus: negative repeat count %d", count)
	}
	for range count {
		if err := b.AppendRow(row); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) appendRow(row []byte) {
	b.data = append(b.data, row...)
	b.n++
}

// Len returns the number of rows appended so far.
func (b *Builder) Len() int { return b.n }

// Build returns the corpus. The builder's buffer is handed over without copy.
func (b *Builder) Build() *Corpus {
	if b.n == 0 {
		b.data = nil
		return Empty(b.dtype, b.dim)
	}
	c := &Corpus{dtype: b.dtype, dim: b.dim, n: b.n, data: b.data}
	b.data = nil
	return c
}
