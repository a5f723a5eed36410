package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
)

// Size is the digest length in bytes.
const Size = 32

// ErrMalformed is returned when parsing a textual fingerprint fails.
var ErrMalformed = errors.New("malformed fingerprint")

// Algorithm selects the digest function.
type Algorithm uint8

const (
	// SHA256 is the default algorithm.
	SHA256 Algorithm = iota
	// BLAKE3 is the 32-byte BLAKE3 hash.
	BLAKE3
)

func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case BLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm parses "sha256" or "blake3".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "sha256", "":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return 0, fmt.Errorf("unsupported fingerprint algorithm %q", s)
	}
}

// Fingerprint is a 256-bit content digest tagged with its algorithm.
type Fingerprint struct {
	Algorithm Algorithm
	Digest    [Size]byte
}

// Sum returns the SHA-256 fingerprint of data.
func Sum(data []byte) Fingerprint {
	return Fingerprint{Algorithm: SHA256, Digest: sha256.Sum256(data)}
}

// SumWith returns the fingerprint of data using alg.
func SumWith(alg Algorithm, data []byte) Fingerprint {
	switch alg {
	case BLAKE3:
		return Fingerprint{Algorithm: BLAKE3, Digest: blake3.Sum256(data)}
	default:
		return Sum(data)
	}
}

// Equal reports whether both fingerprints use the same algorithm and digest.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Algorithm == other.Algorithm && f.Digest == other.Digest
}

// IsZero reports whether f is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// Hex returns the lowercase hex digest without algorithm prefix.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f.Digest[:])
}

// String returns "<algorithm>:<hex>".
func (f Fingerprint) String() string {
	return f.Algorithm.String() + ":" + f.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Parse reads "<algorithm>:<hex>". A bare 64-character hex string is
// accepted as SHA-256.
func Parse(s string) (Fingerprint, error) {
	alg := SHA256
	digest := s
	if name, rest, ok := strings.Cut(s, ":"); ok {
		a, err := ParseAlgorithm(name)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		alg, digest = a, rest
	}

	raw, err := hex.DecodeString(digest)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(raw) != Size {
		return Fingerprint{}, fmt.Errorf("%w: digest has %d bytes, want %d", ErrMalformed, len(raw), Size)
	}

	f := Fingerprint{Algorithm: alg}
	copy(f.Digest[:], raw)
	return f, nil
}

// Hasher is a streaming fingerprint computation.
type Hasher struct {
	alg Algorithm
	h   hash.Hash
}

// New returns a streaming hasher for alg.
func New(alg Algorithm) *Hasher {
	var h hash.Hash
	switch alg {
	case BLAKE3:
		h = blake3.New()
	default:
		alg = SHA256
		h = sha256.New()
	}
	return &Hasher{alg: alg, h: h}
}

// Write adds data to the running digest. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum returns the fingerprint of everything written so far.
func (h *Hasher) Sum() Fingerprint {
	f := Fingerprint{Algorithm: h.alg}
	copy(f.Digest[:], h.h.Sum(nil))
	return f
}

// Reset clears the running digest.
func (h *Hasher) Reset() {
	h.h.Reset()
}
