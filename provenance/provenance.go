package provenance

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/reduce"
)

// Record is the provenance of one lossless reduction. It is an immutable
// value and carries no timestamp; writers add one when emitting it.
type Record struct {
	Mode  string       `json:"mode"`
	Order string       `json:"order,omitempty"`
	DType corpus.DType `json:"dtype"`

	OriginalShape []int   `json:"original_shape"`
	ReducedShape  []int   `json:"reduced_shape"`
	Ratio         float64 `json:"rr_rows"`

	BytesOriginal int `json:"bytes_original"`
	BytesReduced  int `json:"bytes_reduced"`
	BytesSaved    int `json:"bytes_saved"`

	Original fingerprint.Fingerprint `json:"original_fingerprint"`
	Reduced  fingerprint.Fingerprint `json:"reduced_fingerprint"`
	Expanded fingerprint.Fingerprint `json:"expanded_fingerprint"`

	ShapeEqual bool `json:"shape_equal_after_expand"`
	ByteEqual  bool `json:"byte_equal_after_expand"`
	HashEqual  bool `json:"hash_equal_after_expand"`
}

// Passed reports whether the expanded corpus reproduced the original.
func (r *Record) Passed() bool {
	return r.ShapeEqual && r.ByteEqual && r.HashEqual
}

// Verify expands r and proves the result against original.
//
// On a clean mismatch the record is returned together with a
// *VerificationError. If byte equality and fingerprint equality disagree the
// fingerprint function is defective and Verify returns only a
// *FingerprintDefectError.
func Verify(original *corpus.Corpus, r *reduce.Reduction, optFns ...Option) (*Record, error) {
	if original == nil || r == nil || r.Reduced == nil {
		return nil, ErrNilInput
	}
	opts := applyOptions(optFns)

	expanded, err := reduce.Expand(r)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}

	rec := &Record{
		Mode:          r.Map.Kind.Mode(),
		DType:         original.DType(),
		OriginalShape: original.Shape(),
		ReducedShape:  r.Reduced.Shape(),
		Ratio:         r.Ratio(),
		BytesOriginal: original.Nbytes(),
		BytesReduced:  r.Reduced.Nbytes(),
		BytesSaved:    original.Nbytes() - r.Reduced.Nbytes(),
		Original:      opts.sum(original.Bytes()),
		Reduced:       opts.sum(r.Reduced.Bytes()),
		Expanded:      opts.sum(expanded.Bytes()),
	}
	if r.Map.Kind == reduce.KindInverseIndex {
		rec.Order = r.Map.Order.String()
	}

	rec.ShapeEqual = expanded.DType() == original.DType() && slices.Equal(expanded.Shape(), original.Shape())
	rec.ByteEqual = bytes.Equal(expanded.Bytes(), original.Bytes())
	rec.HashEqual = rec.Original.Equal(rec.Expanded)

	verr := VerificationError{
		Original:   rec.Original,
		Expanded:   rec.Expanded,
		ShapeEqual: rec.ShapeEqual,
		ByteEqual:  rec.ByteEqual,
		HashEqual:  rec.HashEqual,
	}
	if rec.ByteEqual != rec.HashEqual {
		return nil, &FingerprintDefectError{VerificationError: verr}
	}
	if !rec.Passed() {
		return rec, &verr
	}
	return rec, nil
}

// HeuristicReport summarizes a near-duplicate clustering. It never claims
// byte equality: the representatives cannot reconstruct the original.
type HeuristicReport struct {
	Heuristic   bool    `json:"heuristic"`
	Approximate bool    `json:"approximate"`
	Similarity  string  `json:"similarity"`
	Threshold   float64 `json:"threshold"`

	TotalInputs int     `json:"total_failures"`
	UniqueModes int     `json:"unique_modes"`
	Ratio       float64 `json:"rr_modes"`

	Original        fingerprint.Fingerprint `json:"original_fingerprint"`
	Representatives fingerprint.Fingerprint `json:"representatives_fingerprint"`

	Clusters []cluster.Cluster `json:"clusters"`
}

// Report builds the heuristic summary of res over original.
func Report(original *corpus.Corpus, res *cluster.Result, optFns ...Option) (*HeuristicReport, error) {
	if original == nil || res == nil {
		return nil, ErrNilInput
	}
	if res.Len() != original.Len() {
		return nil, fmt.Errorf("%w: result covers %d indices, corpus has %d rows",
			cluster.ErrInvalidResult, res.Len(), original.Len())
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	opts := applyOptions(optFns)

	modes, err := res.Modes(original)
	if err != nil {
		return nil, err
	}

	return &HeuristicReport{
		Heuristic:       true,
		Approximate:     res.Approximate,
		Similarity:      string(cluster.Metric),
		Threshold:       res.Threshold,
		TotalInputs:     res.Len(),
		UniqueModes:     res.NumModes(),
		Ratio:           res.Ratio(),
		Original:        opts.sum(original.Bytes()),
		Representatives: opts.sum(modes.Bytes()),
		Clusters:        res.Clusters(),
	}, nil
}
