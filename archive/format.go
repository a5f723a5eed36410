package archive

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/vecproof/corpus"
	"github.com/hupe1980/vecproof/internal/hash"
)

const (
	// Magic identifies a VPAR archive.
	Magic = "VPAR"
	// Version is the current format version.
	Version uint16 = 1
	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 44

	crcOffset = 40
)

var (
	// ErrBadMagic is returned when data does not start with Magic.
	ErrBadMagic = errors.New("not a VPAR archive")

	// ErrUnsupportedVersion is returned for unknown format versions or
	// compression codes.
	ErrUnsupportedVersion = errors.New("unsupported archive version")

	// ErrChecksumMismatch is returned when the stored CRC32C or the row
	// fingerprint does not match the content.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")

	// ErrCorrupt is returned for truncated or inconsistent archives.
	ErrCorrupt = errors.New("corrupt archive")

	// ErrKindMismatch is returned when decoding an archive as the wrong kind.
	ErrKindMismatch = errors.New("archive kind mismatch")
)

// Kind tags what an archive holds.
type Kind uint8

const (
	// KindReduction holds a reduce.Reduction.
	KindReduction Kind = iota + 1
	// KindClusters holds cluster representatives and their assignment.
	KindClusters
)

func (k Kind) String() string {
	switch k {
	case KindReduction:
		return "reduction"
	case KindClusters:
		return "clusters"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Header is the fixed-size archive prefix.
type Header struct {
	Version     uint16
	Kind        Kind
	Compression Compression
	DType       corpus.DType
	Dim         uint32
	Rows        uint64
	RawSize     uint64
	StoredSize  uint64
	Checksum    uint32
}

func (h *Header) marshal() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:], h.Version)
	buf[6] = byte(h.Kind)
	buf[7] = byte(h.Compression)
	buf[8] = byte(h.DType)
	binary.LittleEndian.PutUint32(buf[12:], h.Dim)
	binary.LittleEndian.PutUint64(buf[16:], h.Rows)
	binary.LittleEndian.PutUint64(buf[24:], h.RawSize)
	binary.LittleEndian.PutUint64(buf[32:], h.StoredSize)
	binary.LittleEndian.PutUint32(buf[crcOffset:], h.Checksum)
	return buf
}

// ReadHeader parses and validates the header at the start of data without
// decoding the payload. data must hold the whole archive.
func ReadHeader(data []byte) (Header, error) {
	h, err := parseHeader(data)
	if err != nil {
		return Header{}, err
	}
	if uint64(len(data)-HeaderSize) != h.StoredSize {
		return Header{}, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(data)-HeaderSize, h.StoredSize)
	}
	return h, nil
}

func parseHeader(data []byte) (Header, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return Header{}, ErrBadMagic
	}
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}

	h := Header{
		Version:     binary.LittleEndian.Uint16(data[4:]),
		Kind:        Kind(data[6]),
		Compression: Compression(data[7]),
		DType:       corpus.DType(data[8]),
		Dim:         binary.LittleEndian.Uint32(data[12:]),
		Rows:        binary.LittleEndian.Uint64(data[16:]),
		RawSize:     binary.LittleEndian.Uint64(data[24:]),
		StoredSize:  binary.LittleEndian.Uint64(data[32:]),
		Checksum:    binary.LittleEndian.Uint32(data[crcOffset:]),
	}

	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Kind != KindReduction && h.Kind != KindClusters {
		return Header{}, fmt.Errorf("%w: unknown kind %d", ErrCorrupt, uint8(h.Kind))
	}
	if !h.DType.Valid() {
		return Header{}, fmt.Errorf("%w: %w", ErrCorrupt, corpus.ErrUnsupportedDType)
	}
	return h, nil
}

// checksum covers the header up to the CRC field and the stored payload.
func checksum(header, stored []byte) uint32 {
	h := hash.NewCRC32C()
	_, _ = h.Write(header[:crcOffset])
	_, _ = h.Write(stored)
	return h.Sum32()
}
