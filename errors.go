package vecproof

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/provenance"
	"github.com/hupe1980/vecproof/reduce"
)

var (
	// ErrNilCorpus is returned when a required corpus or artifact is nil.
	ErrNilCorpus = errors.New("nil corpus")

	// ErrInvalidMap is returned when a reduction map cannot reconstruct its
	// original.
	ErrInvalidMap = errors.New("invalid reduction map")

	// ErrVerificationFailed is returned when an expanded corpus does not
	// reproduce the original.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrFingerprintDefect is returned when byte equality and fingerprint
	// equality disagree.
	ErrFingerprintDefect = errors.New("fingerprint defect")
)

// ErrInputShape indicates ragged vectors or a buffer that is not a whole
// number of rows.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInputShape struct {
	Row      int
	Expected int
	Actual   int
	cause    error
}

func (e *ErrInputShape) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("input shape: %d bytes is not a multiple of row size %d", e.Actual, e.Expected)
	}
	return fmt.Sprintf("input shape: row %d has %d components, expected %d", e.Row, e.Actual, e.Expected)
}

func (e *ErrInputShape) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, reduce.ErrNilCorpus) || errors.Is(err, cluster.ErrNilCorpus) ||
		errors.Is(err, provenance.ErrNilInput) {
		return fmt.Errorf("%w: %w", ErrNilCorpus, err)
	}
	if errors.Is(err, reduce.ErrInvalidMap) {
		return fmt.Errorf("%w: %w", ErrInvalidMap, err)
	}

	var defect *provenance.FingerprintDefectError
	if errors.As(err, &defect) {
		return fmt.Errorf("%w: %w", ErrFingerprintDefect, err)
	}
	var verr *provenance.VerificationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	var shape *corpus.InputShapeError
	if errors.As(err, &shape) {
		return &ErrInputShape{Row: shape.Row, Expected: shape.Expected, Actual: shape.Actual, cause: err}
	}

	return err
}
