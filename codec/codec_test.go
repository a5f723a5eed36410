package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof/fingerprint"
)

type doc struct {
	Mode     string                  `json:"mode"`
	Shape    []int                   `json:"shape"`
	Ratio    float64                 `json:"ratio"`
	Original fingerprint.Fingerprint `json:"original"`
	Clusters map[string][]int        `json:"clusters"`
}

func sampleDoc() doc {
	return doc{
		Mode:     "unique",
		Shape:    []int{60, 6},
		Ratio:    0.5,
		Original: fingerprint.Sum([]byte("abc")),
		Clusters: map[string][]int{"0": {0, 3}, "1": {1, 2}},
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json", "cbor"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("xml")
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}, CBOR{}} {
		t.Run(c.Name(), func(t *testing.T) {
			in := sampleDoc()
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out doc
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestJSONCodecsAgree(t *testing.T) {
	in := sampleDoc()
	assert.JSONEq(t, string(MustMarshal(JSON{}, in)), string(MustMarshal(GoJSON{}, in)))
	assert.Contains(t, string(MustMarshal(JSON{}, in)), `"original":"sha256:ba7816bf`)
}

func TestCBORDeterministic(t *testing.T) {
	a := MustMarshal(CBOR{}, map[string]int{"b": 2, "a": 1, "c": 3})
	b := MustMarshal(CBOR{}, map[string]int{"c": 3, "a": 1, "b": 2})
	assert.Equal(t, a, b)
}

func TestMarshalPretty(t *testing.T) {
	out, err := MarshalPretty(JSON{}, map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(out))

	out, err = MarshalPretty(CBOR{}, map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, MustMarshal(CBOR{}, map[string]int{"a": 1}), out)

	assert.Equal(t, ".cbor", Extension(CBOR{}))
	assert.Equal(t, ".json", Extension(GoJSON{}))
}
