package provenance

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecproof/fingerprint"
)

// ErrNilInput is returned when the original corpus or artifact is nil.
var ErrNilInput = errors.New("nil verification input")

// VerificationError indicates the expanded corpus does not reproduce the
// original. Both fingerprints are carried for diagnosis.
type VerificationError struct {
	Original   fingerprint.Fingerprint
	Expanded   fingerprint.Fingerprint
	ShapeEqual bool
	ByteEqual  bool
	HashEqual  bool
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed: original %s, expanded %s (shape_equal=%t, byte_equal=%t, hash_equal=%t)",
		e.Original, e.Expanded, e.ShapeEqual, e.ByteEqual, e.HashEqual)
}

// FingerprintDefectError indicates byte equality and fingerprint equality
// disagree, which can only happen if fingerprinting is broken.
type FingerprintDefectError struct {
	VerificationError
}

func (e *FingerprintDefectError) Error() string {
	return fmt.Sprintf("fingerprint defect: byte_equal=%t but hash_equal=%t (original %s, expanded %s)",
		e.ByteEqual, e.HashEqual, e.Original, e.Expanded)
}

// Unwrap exposes the embedded VerificationError so errors.As matches both.
func (e *FingerprintDefectError) Unwrap() error { return &e.VerificationError }
