package manifest

import (
	"strconv"

	"github.com/hupe1980/vecproof/cluster"
	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/provenance"
	"github.com/hupe1980/vecproof/reduce"
)

const (
	// CurrentVersion is the manifest document version.
	CurrentVersion = 1

	// Tool is recorded in every manifest.
	Tool = "vecproof"
)

// Document is a run manifest.
type Document struct {
	Version      int    `json:"version"`
	Tool         string `json:"tool"`
	RunID        string `json:"run_id"`
	CreatedAtUTC string `json:"created_at_utc"`

	// Dataset names the input, e.g. a file path.
	Dataset            string                  `json:"dataset,omitempty"`
	DatasetFingerprint fingerprint.Fingerprint `json:"dataset_fingerprint"`

	Reduction    *provenance.Record          `json:"reduction,omitempty"`
	ExpansionMap *ExpansionMap               `json:"expansion_map,omitempty"`
	Heuristic    *provenance.HeuristicReport `json:"heuristic,omitempty"`
	Clusters     map[string][]int            `json:"clusters,omitempty"`

	// Fingerprints holds extra named digests, such as a policy blob.
	Fingerprints map[string]fingerprint.Fingerprint `json:"fingerprints,omitempty"`
	Artifacts    []Artifact                         `json:"artifacts,omitempty"`
	Params       map[string]any                     `json:"params,omitempty"`
}

// ExpansionMap is the manifest view of a reduce.Map.
type ExpansionMap struct {
	Kind         string `json:"kind"`
	Order        string `json:"order,omitempty"`
	InverseIndex []int  `json:"inverse_index,omitempty"`
	KeptIndices  []int  `json:"kept_indices,omitempty"`
	OriginalLen  int    `json:"original_len"`
}

// Artifact describes a blob written alongside the manifest.
type Artifact struct {
	Name        string                  `json:"name"`
	Kind        string                  `json:"kind"`
	Bytes       int                     `json:"bytes"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
}

// NewExpansionMap converts m for embedding in a manifest.
func NewExpansionMap(m reduce.Map) *ExpansionMap {
	em := &ExpansionMap{
		Kind:        m.Kind.String(),
		OriginalLen: m.OriginalLen,
	}
	switch m.Kind {
	case reduce.KindInverseIndex:
		em.Order = m.Order.String()
		em.InverseIndex = m.Inverse
	case reduce.KindKeptIndices:
		em.KeptIndices = m.Kept
	}
	return em
}

// ClusterMap keys each cluster's sorted members by its representative.
func ClusterMap(clusters []cluster.Cluster) map[string][]int {
	out := make(map[string][]int, len(clusters))
	for _, c := range clusters {
		out[strconv.Itoa(c.Representative)] = c.Members
	}
	return out
}

// ForReduction builds a manifest for a verified lossless reduction.
func ForReduction(rec *provenance.Record, m reduce.Map) *Document {
	return &Document{
		Version:            CurrentVersion,
		Tool:               Tool,
		DatasetFingerprint: rec.Original,
		Reduction:          rec,
		ExpansionMap:       NewExpansionMap(m),
	}
}

// ForHeuristic builds a manifest for a near-duplicate clustering.
func ForHeuristic(rep *provenance.HeuristicReport) *Document {
	return &Document{
		Version:            CurrentVersion,
		Tool:               Tool,
		DatasetFingerprint: rep.Original,
		Heuristic:          rep,
		Clusters:           ClusterMap(rep.Clusters),
	}
}

// AddArtifact records a blob written for this run.
func (d *Document) AddArtifact(name, kind string, data []byte, alg fingerprint.Algorithm) {
	d.Artifacts = append(d.Artifacts, Artifact{
		Name:        name,
		Kind:        kind,
		Bytes:       len(data),
		Fingerprint: fingerprint.SumWith(alg, data),
	})
}

// AddFingerprint records an extra named digest.
func (d *Document) AddFingerprint(name string, fp fingerprint.Fingerprint) {
	if d.Fingerprints == nil {
		d.Fingerprints = make(map[string]fingerprint.Fingerprint)
	}
	d.Fingerprints[name] = fp
}

// Passed reports whether the run's lossless verification succeeded. Heuristic
// runs have nothing to verify and always pass.
func (d *Document) Passed() bool {
	if d.Reduction == nil {
		return true
	}
	return d.Reduction.Passed()
}
