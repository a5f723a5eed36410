package archive

import (
	"fmt"
	"io"

	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/codec"
	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/internal/conv"
	"github.com/hupe1980/vecproof/reduce"
)

var payloadCodec = codec.CBOR{}

// payload is the CBOR body of an archive.
type payload struct {
	DType       corpus.DType            `cbor:"dtype"`
	Dim         int                     `cbor:"dim"`
	Rows        int                     `cbor:"rows"`
	Data        []byte                  `cbor:"data"`
	Fingerprint fingerprint.Fingerprint `cbor:"fingerprint"`
	Map         *mapPayload             `cbor:"map,omitempty"`
	Clusters    *clustersPayload        `cbor:"clusters,omitempty"`
}

type mapPayload struct {
	Kind        uint8        `cbor:"kind"`
	Order       reduce.Order `cbor:"order"`
	Inverse     []int        `cbor:"inverse"`
	Kept        []int        `cbor:"kept"`
	OriginalLen int          `cbor:"original_len"`
}

type clustersPayload struct {
	Representatives []int   `cbor:"representatives"`
	Assignment      []int   `cbor:"assignment"`
	Threshold       float64 `cbor:"threshold"`
	Approximate     bool    `cbor:"approximate"`
}

// ClusterSet is a decoded cluster archive: the representative rows and the
// heuristic partition they were chosen by.
type ClusterSet struct {
	Modes  *corpus.Corpus
	Result *cluster.Result
}

// Marshal encodes a lossless reduction as a VPAR archive.
func Marshal(r *reduce.Reduction, optFns ...Option) ([]byte, error) {
	if r == nil || r.Reduced == nil {
		return nil, reduce.ErrNilCorpus
	}
	if err := r.Map.Validate(r.Reduced.Len()); err != nil {
		return nil, err
	}

	opts := applyOptions(optFns)
	p := newPayload(r.Reduced, opts)
	p.Map = &mapPayload{
		Kind:        uint8(r.Map.Kind),
		Order:       r.Map.Order,
		Inverse:     r.Map.Inverse,
		Kept:        r.Map.Kept,
		OriginalLen: r.Map.OriginalLen,
	}
	return encode(KindReduction, r.Reduced, p, opts)
}

// MarshalClusters encodes the representative rows of a cluster result.
func MarshalClusters(modes *corpus.Corpus, res *cluster.Result, optFns ...Option) ([]byte, error) {
	if modes == nil || res == nil {
		return nil, cluster.ErrNilCorpus
	}
	if err := checkClusters(modes, res); err != nil {
		return nil, err
	}

	opts := applyOptions(optFns)
	p := newPayload(modes, opts)
	p.Clusters = &clustersPayload{
		Representatives: res.Representatives,
		Assignment:      res.Assignment,
		Threshold:       res.Threshold,
		Approximate:     res.Approximate,
	}
	return encode(KindClusters, modes, p, opts)
}

func newPayload(c *corpus.Corpus, opts options) *payload {
	return &payload{
		DType:       c.DType(),
		Dim:         c.Dim(),
		Rows:        c.Len(),
		Data:        c.Bytes(),
		Fingerprint: fingerprint.SumWith(opts.algorithm, c.Bytes()),
	}
}

func encode(kind Kind, c *corpus.Corpus, p *payload, opts options) ([]byte, error) {
	dim, err := conv.IntToUint32(c.Dim())
	if err != nil {
		return nil, fmt.Errorf("%w: dim: %w", ErrCorrupt, err)
	}

	raw, err := payloadCodec.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	stored, applied, err := compress(raw, opts.compression)
	if err != nil {
		return nil, err
	}

	h := Header{
		Version:     Version,
		Kind:        kind,
		Compression: applied,
		DType:       c.DType(),
		Dim:         dim,
		Rows:        uint64(c.Len()),
		RawSize:     uint64(len(raw)),
		StoredSize:  uint64(len(stored)),
	}
	header := h.marshal()
	h.Checksum = checksum(header, stored)
	header = h.marshal()

	out := make([]byte, 0, len(header)+len(stored))
	out = append(out, header...)
	return append(out, stored...), nil
}

// decode verifies the header, checksum and row fingerprint and returns the
// payload with its rows.
func decode(data []byte, want Kind) (*payload, *corpus.Corpus, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, nil, err
	}
	if h.Kind != want {
		return nil, nil, fmt.Errorf("%w: archive holds %s, want %s", ErrKindMismatch, h.Kind, want)
	}

	stored := data[HeaderSize:]
	if got := checksum(data[:HeaderSize], stored); got != h.Checksum {
		return nil, nil, fmt.Errorf("%w: crc32c %08x, header says %08x", ErrChecksumMismatch, got, h.Checksum)
	}
	rawSize, err := conv.Uint64ToInt(h.RawSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: payload size: %w", ErrCorrupt, err)
	}

	raw, err := decompress(stored, h.Compression, rawSize)
	if err != nil {
		return nil, nil, err
	}

	var p payload
	if err := payloadCodec.Unmarshal(raw, &p); err != nil {
		return nil, nil, fmt.Errorf("%w: decode payload: %w", ErrCorrupt, err)
	}
	if p.DType != h.DType || uint64(p.Dim) != uint64(h.Dim) || uint64(p.Rows) != h.Rows {
		return nil, nil, fmt.Errorf("%w: payload shape disagrees with header", ErrCorrupt)
	}
	if !fingerprint.SumWith(p.Fingerprint.Algorithm, p.Data).Equal(p.Fingerprint) {
		return nil, nil, fmt.Errorf("%w: row fingerprint", ErrChecksumMismatch)
	}

	c, err := corpus.FromBytes(p.DType, p.Dim, p.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if c.Len() != p.Rows {
		return nil, nil, fmt.Errorf("%w: %d rows decoded, header says %d", ErrCorrupt, c.Len(), p.Rows)
	}
	return &p, c, nil
}

// Unmarshal decodes a reduction archive. The reduction map is validated
// against the decoded rows.
func Unmarshal(data []byte) (*reduce.Reduction, error) {
	p, c, err := decode(data, KindReduction)
	if err != nil {
		return nil, err
	}
	if p.Map == nil {
		return nil, fmt.Errorf("%w: reduction archive without map", ErrCorrupt)
	}

	r := &reduce.Reduction{
		Reduced: c,
		Map: reduce.Map{
			Kind:        reduce.Kind(p.Map.Kind),
			Order:       p.Map.Order,
			Inverse:     p.Map.Inverse,
			Kept:        p.Map.Kept,
			OriginalLen: p.Map.OriginalLen,
		},
	}
	if err := r.Map.Validate(c.Len()); err != nil {
		return nil, err
	}
	return r, nil
}

// UnmarshalClusters decodes a cluster archive.
func UnmarshalClusters(data []byte) (*ClusterSet, error) {
	p, c, err := decode(data, KindClusters)
	if err != nil {
		return nil, err
	}
	if p.Clusters == nil {
		return nil, fmt.Errorf("%w: cluster archive without assignment", ErrCorrupt)
	}

	res := &cluster.Result{
		Representatives: p.Clusters.Representatives,
		Assignment:      p.Clusters.Assignment,
		Threshold:       p.Clusters.Threshold,
		Approximate:     p.Clusters.Approximate,
	}
	if res.Representatives == nil {
		res.Representatives = []int{}
	}
	if res.Assignment == nil {
		res.Assignment = []int{}
	}
	if err := checkClusters(c, res); err != nil {
		return nil, err
	}
	return &ClusterSet{Modes: c, Result: res}, nil
}

func checkClusters(modes *corpus.Corpus, res *cluster.Result) error {
	if err := res.Validate(); err != nil {
		return err
	}
	if modes.Len() != res.NumModes() {
		return fmt.Errorf("%w: %d mode rows for %d representatives", cluster.ErrInvalidResult, modes.Len(), res.NumModes())
	}
	return nil
}

// Encode writes a reduction archive to w.
func Encode(w io.Writer, r *reduce.Reduction, optFns ...Option) error {
	data, err := Marshal(r, optFns...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a whole reduction archive from rd.
func Decode(rd io.Reader) (*reduce.Reduction, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
