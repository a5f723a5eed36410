package corpus

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDType is returned for element types outside DType.
	ErrUnsupportedDType = errors.New("unsupported dtype")

	// ErrIndexOutOfRange is returned when a row index does not exist.
	ErrIndexOutOfRange = errors.New("row index out of range")
)

// InputShapeError indicates vectors of inconsistent length, or a byte buffer
// whose length is not a whole number of rows.
//
// Row is -1 when the error concerns the buffer as a whole.
type InputShapeError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *InputShapeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("input shape: buffer of %d bytes is not a multiple of row size %d", e.Actual, e.Expected)
	}
	return fmt.Sprintf("input shape: row %d has %d components, expected %d", e.Row, e.Actual, e.Expected)
}
