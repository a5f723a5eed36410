package reduce

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecproof/corpus"
)

var (
	// ErrNilCorpus is returned when a nil corpus is passed.
	ErrNilCorpus = errors.New("nil corpus")

	// ErrInvalidMap is returned when a reduction map cannot reconstruct a
	// corpus from its reduced set.
	ErrInvalidMap = errors.New("invalid reduction map")
)

// Kind tags the ReductionMap variant.
type Kind uint8

const (
	// KindInverseIndex maps every original position to a unique-set index.
	KindInverseIndex Kind = iota + 1
	// KindKeptIndices lists the original positions retained by run-length
	// reduction.
	KindKeptIndices
)

func (k Kind) String() string {
	switch k {
	case KindInverseIndex:
		return "inverse_index"
	case KindKeptIndices:
		return "kept_indices"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Mode returns the name of the reducer that produces this kind.
func (k Kind) Mode() string {
	switch k {
	case KindInverseIndex:
		return "unique"
	case KindKeptIndices:
		return "consecutive"
	default:
		return "unknown"
	}
}

// Order is the unique-set ordering policy.
type Order uint8

const (
	// FirstSeen orders distinct rows by first occurrence.
	FirstSeen Order = iota
	// Sorted orders distinct rows by ascending component values.
	Sorted
)

func (o Order) String() string {
	switch o {
	case FirstSeen:
		return "first_seen"
	case Sorted:
		return "sorted"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(o))
	}
}

// ParseOrder parses "first_seen" or "sorted".
func ParseOrder(s string) (Order, error) {
	switch s {
	case "first_seen", "first-seen", "":
		return FirstSeen, nil
	case "sorted":
		return Sorted, nil
	default:
		return 0, fmt.Errorf("unknown unique order %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(text []byte) error {
	v, err := ParseOrder(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Map is the reconstruction metadata of a lossless reduction.
type Map struct {
	Kind Kind

	// Order is the unique-set policy (KindInverseIndex only).
	Order Order

	// Inverse[i] is the unique-set index of original row i
	// (KindInverseIndex only).
	Inverse []int

	// Kept lists retained original positions, strictly increasing from 0
	// (KindKeptIndices only).
	Kept []int

	// OriginalLen is the number of rows in the original corpus.
	OriginalLen int
}

// Validate checks that the map can expand a reduced set of reducedLen rows.
func (m *Map) Validate(reducedLen int) error {
	switch m.Kind {
	case KindInverseIndex:
		if len(m.Inverse) != m.OriginalLen {
			return fmt.Errorf("%w: inverse has %d entries, original length %d", ErrInvalidMap, len(m.Inverse), m.OriginalLen)
		}
		for i, u := range m.Inverse {
			if u < 0 || u >= reducedLen {
				return fmt.Errorf("%w: inverse[%d]=%d outside unique set of %d", ErrInvalidMap, i, u, reducedLen)
			}
		}
		return nil
	case KindKeptIndices:
		if len(m.Kept) != reducedLen {
			return fmt.Errorf("%w: %d kept indices for %d reduced rows", ErrInvalidMap, len(m.Kept), reducedLen)
		}
		if len(m.Kept) == 0 {
			if m.OriginalLen != 0 {
				return fmt.Errorf("%w: no kept rows for original length %d", ErrInvalidMap, m.OriginalLen)
			}
			return nil
		}
		if m.Kept[0] != 0 {
			return fmt.Errorf("%w: first kept index is %d, want 0", ErrInvalidMap, m.Kept[0])
		}
		for i := 1; i < len(m.Kept); i++ {
			if m.Kept[i] <= m.Kept[i-1] {
				return fmt.Errorf("%w: kept indices not strictly increasing at %d", ErrInvalidMap, i)
			}
		}
		if last := m.Kept[len(m.Kept)-1]; last >= m.OriginalLen {
			return fmt.Errorf("%w: kept index %d beyond original length %d", ErrInvalidMap, last, m.OriginalLen)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidMap, uint8(m.Kind))
	}
}

// Reduction is a lossless reduced artifact: the reduced rows plus the map
// that reconstructs the original from them.
type Reduction struct {
	Reduced *corpus.Corpus
	Map     Map
}

// Ratio returns reduced rows divided by original rows.
// An empty original has ratio 1.
func (r *Reduction) Ratio() float64 {
	if r.Map.OriginalLen == 0 {
		return 1
	}
	return float64(r.Reduced.Len()) / float64(r.Map.OriginalLen)
}
