package npy

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/testutil"
)

// rawNPY builds an .npy stream with an arbitrary header dict.
func rawNPY(major byte, dict string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.WriteByte(major)
	buf.WriteByte(0)
	if major == 1 {
		_ = binary.Write(&buf, binary.LittleEndian, uint16(len(dict)))
	} else {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(dict)))
	}
	buf.WriteString(dict)
	buf.Write(data)
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	g := testutil.NewRNG(3).GaussianVectors(20, 2)
	f64 := make([][]float64, len(g))
	i64 := make([][]int64, len(g))
	for i, v := range g {
		f64[i] = []float64{float64(v[0]), float64(v[1]), math.Copysign(0, -1)}
		i64[i] = []int64{int64(i) << 40, -int64(i)}
	}

	f64c, err := corpus.FromFloat64(f64)
	require.NoError(t, err)
	i64c, err := corpus.FromInt64(i64)
	require.NoError(t, err)

	tests := []struct {
		name string
		c    *corpus.Corpus
	}{
		{"Float32", testutil.TelemetryCorpus(21)},
		{"Int32", testutil.TrajectoryCorpus(7)},
		{"Float64", f64c},
		{"Int64", i64c},
		{"Empty", corpus.Empty(corpus.Float32, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.c))

			headerLen := buf.Len() - tt.c.Nbytes()
			assert.Zero(t, headerLen%alignment, "data starts on a 64-byte boundary")
			assert.Equal(t, byte('\n'), buf.Bytes()[headerLen-1])

			back, err := Read(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, tt.c.DType(), back.DType())
			assert.Equal(t, tt.c.Dim(), back.Dim())
			assert.Equal(t, tt.c.Len(), back.Len())
			assert.Equal(t, tt.c.Bytes(), back.Bytes())
		})
	}
}

func TestReadHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testutil.TrajectoryCorpus(7)))

	h, err := ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Major)
	assert.Equal(t, "<i4", h.Descr)
	assert.False(t, h.FortranOrder)
	assert.Equal(t, []int{60, 6}, h.Shape)
	assert.Equal(t, 60*6*4, buf.Len())
}

func TestRead_Version2AndOneDimensional(t *testing.T) {
	data := make([]byte, 3*8)
	for i := range 3 {
		binary.LittleEndian.PutUint64(data[i*8:], uint64(i+1))
	}
	raw := rawNPY(2, "{'descr': '<i8', 'fortran_order': False, 'shape': (3,), }\n", data)

	c, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, corpus.Int64, c.DType())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, c.Dim())
	assert.Equal(t, []float64{2}, c.Float64Row(1))
}

func TestRead_Errors(t *testing.T) {
	row := make([]byte, 8)

	tests := []struct {
		name string
		raw  []byte
		err  error
	}{
		{"BadMagic", []byte("PK\x03\x04not numpy"), ErrBadMagic},
		{"Short", []byte("\x93NUM"), ErrBadMagic},
		{"BigEndian", rawNPY(1, "{'descr': '>f4', 'fortran_order': False, 'shape': (1, 2), }", row), ErrUnsupported},
		{"Float16", rawNPY(1, "{'descr': '<f2', 'fortran_order': False, 'shape': (1, 4), }", row), ErrUnsupported},
		{"Fortran", rawNPY(1, "{'descr': '<f4', 'fortran_order': True, 'shape': (2, 2), }", append(row, row...)), ErrUnsupported},
		{"ThreeD", rawNPY(1, "{'descr': '<f4', 'fortran_order': False, 'shape': (1, 1, 2), }", row), ErrUnsupported},
		{"Scalar", rawNPY(1, "{'descr': '<f4', 'fortran_order': False, 'shape': (), }", row[:4]), ErrUnsupported},
		{"NoShape", rawNPY(1, "{'descr': '<f4', 'fortran_order': False, }", row), ErrMalformedHeader},
		{"Version9", rawNPY(9, "{}", nil), ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.raw))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRead_RowsWithoutColumns(t *testing.T) {
	raw := rawNPY(1, "{'descr': '<f4', 'fortran_order': False, 'shape': (5, 0), }", nil)

	_, err := Read(bytes.NewReader(raw))
	var shapeErr *corpus.InputShapeError
	require.ErrorAs(t, err, &shapeErr)

	path := filepath.Join(t.TempDir(), "flat.npy")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	_, err = ReadFile(path)
	require.ErrorAs(t, err, &shapeErr)

	c, err := Read(bytes.NewReader(rawNPY(1, "{'descr': '<f4', 'fortran_order': False, 'shape': (0, 0), }", nil)))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, c.Shape())
}

func TestRead_TruncatedData(t *testing.T) {
	raw := rawNPY(1, "{'descr': '<f4', 'fortran_order': False, 'shape': (4, 2), }", make([]byte, 12))
	_, err := Read(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.npy")
	c := testutil.TelemetryCorpus(21)

	require.NoError(t, WriteFile(path, c))
	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.True(t, c.Equal(back))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.npy"))
	require.Error(t, err)
}

func TestReadFile_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.npy")
	raw := rawNPY(1, "{'descr': '<f4', 'fortran_order': False, 'shape': (4, 2), }", make([]byte, 12))
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err := ReadFile(path)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	empty := filepath.Join(t.TempDir(), "empty.npy")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = ReadFile(empty)
	require.ErrorIs(t, err, ErrBadMagic)
}
