package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/internal/conv"
	"github.com/hupe1980/vecproof/internal/mmap"
)

// Magic starts every .npy file.
const Magic = "\x93NUMPY"

const alignment = 64

var (
	// ErrBadMagic is returned when the input is not an .npy file.
	ErrBadMagic = errors.New("npy: bad magic")

	// ErrUnsupported is returned for valid .npy files this package does not
	// read: other dtypes, big-endian data, Fortran order, or more than two
	// dimensions.
	ErrUnsupported = errors.New("npy: unsupported array")

	// ErrMalformedHeader is returned when the header dict cannot be parsed.
	ErrMalformedHeader = errors.New("npy: malformed header")
)

// Header describes the array stored in an .npy file.
type Header struct {
	Major, Minor int
	Descr        string
	FortranOrder bool
	Shape        []int
}

var (
	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// ReadHeader reads the preamble and header dict from r, leaving r positioned
// at the start of the data.
func ReadHeader(r io.Reader) (*Header, error) {
	pre := make([]byte, len(Magic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, err
	}
	if string(pre[:len(Magic)]) != Magic {
		return nil, ErrBadMagic
	}

	h := &Header{Major: int(pre[6]), Minor: int(pre[7])}

	var headerLen int
	switch h.Major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("%w: format version %d.%d", ErrUnsupported, h.Major, h.Minor)
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	if err := h.parse(string(raw)); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Header) parse(dict string) error {
	m := descrRe.FindStringSubmatch(dict)
	if m == nil {
		return fmt.Errorf("%w: missing descr", ErrMalformedHeader)
	}
	h.Descr = m[1]

	m = fortranRe.FindStringSubmatch(dict)
	if m == nil {
		return fmt.Errorf("%w: missing fortran_order", ErrMalformedHeader)
	}
	h.FortranOrder = m[1] == "True"

	m = shapeRe.FindStringSubmatch(dict)
	if m == nil {
		return fmt.Errorf("%w: missing shape", ErrMalformedHeader)
	}
	h.Shape = h.Shape[:0]
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(part, "L"))
		if err != nil || n < 0 {
			return fmt.Errorf("%w: shape entry %q", ErrMalformedHeader, part)
		}
		h.Shape = append(h.Shape, n)
	}
	return nil
}

// DType maps the header descr to a corpus dtype.
func (h *Header) DType() (corpus.DType, error) {
	dt, err := corpus.ParseDType(h.Descr)
	if err != nil || !strings.HasPrefix(h.Descr, "<") {
		return 0, fmt.Errorf("%w: descr %q", ErrUnsupported, h.Descr)
	}
	return dt, nil
}

// rowsDim returns the corpus shape of the array.
func (h *Header) rowsDim() (int, int, error) {
	switch len(h.Shape) {
	case 1:
		return h.Shape[0], 1, nil
	case 2:
		return h.Shape[0], h.Shape[1], nil
	default:
		return 0, 0, fmt.Errorf("%w: %d-D array", ErrUnsupported, len(h.Shape))
	}
}

type layout struct {
	dtype corpus.DType
	rows  int
	dim   int
	size  int
}

func readLayout(r io.Reader) (layout, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return layout{}, err
	}
	dt, err := h.DType()
	if err != nil {
		return layout{}, err
	}
	rows, dim, err := h.rowsDim()
	if err != nil {
		return layout{}, err
	}
	if rows > 0 && dim == 0 {
		return layout{}, &corpus.InputShapeError{Row: 0, Expected: 1, Actual: 0}
	}
	if h.FortranOrder && rows > 1 && dim > 1 {
		return layout{}, fmt.Errorf("%w: fortran order", ErrUnsupported)
	}

	cells, err := conv.MulInt(rows, dim)
	if err != nil {
		return layout{}, fmt.Errorf("%w: shape (%d, %d): %w", ErrUnsupported, rows, dim, err)
	}
	size, err := conv.MulInt(cells, dt.Size())
	if err != nil {
		return layout{}, fmt.Errorf("%w: shape (%d, %d): %w", ErrUnsupported, rows, dim, err)
	}
	return layout{dtype: dt, rows: rows, dim: dim, size: size}, nil
}

// Read decodes an .npy stream into a corpus.
func Read(r io.Reader) (*corpus.Corpus, error) {
	l, err := readLayout(r)
	if err != nil {
		return nil, err
	}
	if l.size == 0 {
		return corpus.Empty(l.dtype, l.dim), nil
	}

	data := make([]byte, l.size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("npy: read %d data bytes: %w", l.size, err)
	}
	return corpus.FromBytes(l.dtype, l.dim, data)
}

// Write encodes c as a 2-D .npy array. Version 1.0 is used unless the
// header does not fit, in which case 2.0 is written.
func Write(w io.Writer, c *corpus.Corpus) error {
	if c == nil {
		return errors.New("npy: nil corpus")
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d), }",
		c.DType().Descr(), c.Len(), c.Dim())

	major, lenSize := 1, 2
	if total := len(Magic) + 2 + lenSize + len(dict) + 1; total > 0xffff {
		major, lenSize = 2, 4
	}
	pre := len(Magic) + 2 + lenSize
	padded := dict + strings.Repeat(" ", (alignment-(pre+len(dict)+1)%alignment)%alignment) + "\n"

	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString(Magic)
	_ = bw.WriteByte(byte(major))
	_ = bw.WriteByte(0)
	if major == 1 {
		_ = binary.Write(bw, binary.LittleEndian, uint16(len(padded)))
	} else {
		_ = binary.Write(bw, binary.LittleEndian, uint32(len(padded)))
	}
	_, _ = bw.WriteString(padded)
	_, _ = bw.Write(c.Bytes())
	return bw.Flush()
}

// ReadFile reads the .npy file at path. The file is memory-mapped and the
// rows are copied out of the mapping once.
func ReadFile(path string) (*corpus.Corpus, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = m.Close() }()
	_ = m.Advise(mmap.AccessSequential)

	data := m.Bytes()
	br := bytes.NewReader(data)
	l, err := readLayout(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if l.size == 0 {
		return corpus.Empty(l.dtype, l.dim), nil
	}

	off := len(data) - br.Len()
	if br.Len() < l.size {
		return nil, fmt.Errorf("%s: npy: read %d data bytes: %w", path, l.size, io.ErrUnexpectedEOF)
	}
	return corpus.FromBytes(l.dtype, l.dim, data[off:off+l.size])
}

// WriteFile writes c to path as an .npy file.
func WriteFile(path string, c *corpus.Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, c); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
