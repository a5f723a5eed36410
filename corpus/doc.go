// Package corpus defines the in-memory representation of an ordered set of
// fixed-dimension numeric vectors.
//
// A Corpus is backed by one contiguous row-major byte buffer. That buffer is
// the exact serialization handed over by the caller (for example the data
// section of a .npy file) and it is what fingerprints are computed over.
// The package never re-encodes rows: equality is always byte equality.
//
// # Element Types
//
//   - Float32: little-endian IEEE-754 binary32 ("<f4")
//   - Float64: little-endian IEEE-754 binary64 ("<f8")
//   - Int32:   little-endian two's complement ("<i4")
//   - Int64:   little-endian two's complement ("<i8")
//
// # Usage
//
//	c, err := corpus.FromFloat32(rows)
//	if err != nil {
//	    var shapeErr *corpus.InputShapeError
//	    errors.As(err, &shapeErr)
//	}
//	row := c.Row(3)          // exact bytes of row 3
//	vec := c.Float64Row(3)   // widened copy for similarity math
package corpus
