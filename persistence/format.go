package persistence

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/pairci/det"
)

const (
	// Magic identifies determinant snapshots.
	Magic = "PCI1"

	// Version is the current snapshot format version.
	Version uint16 = 1

	// HeaderSize is the encoded header length in bytes.
	HeaderSize = 48
)

// Header describes a snapshot payload.
type Header struct {
	Version     uint16
	Compression Compression
	NBasis      uint32
	NOcc        uint32
	NWord       uint32
	NDet        uint64
	RawLen      uint64
	PayloadLen  uint64
	Checksum    uint32
}

// AppendBinary appends the encoded header to dst.
func (h *Header) AppendBinary(dst []byte) []byte {
	dst = append(dst, Magic...)
	dst = binary.LittleEndian.AppendUint16(dst, h.Version)
	dst = append(dst, byte(h.Compression), 0)
	dst = binary.LittleEndian.AppendUint32(dst, h.NBasis)
	dst = binary.LittleEndian.AppendUint32(dst, h.NOcc)
	dst = binary.LittleEndian.AppendUint32(dst, h.NWord)
	dst = binary.LittleEndian.AppendUint64(dst, h.NDet)
	dst = binary.LittleEndian.AppendUint64(dst, h.RawLen)
	dst = binary.LittleEndian.AppendUint64(dst, h.PayloadLen)
	dst = binary.LittleEndian.AppendUint32(dst, h.Checksum)
	return dst
}

// ParseHeader decodes and validates a header from the first HeaderSize bytes of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header is %d bytes, want %d", ErrCorrupt, len(b), HeaderSize)
	}
	if string(b[:4]) != Magic {
		return Header{}, ErrInvalidMagic
	}
	h := Header{
		Version:     binary.LittleEndian.Uint16(b[4:]),
		Compression: Compression(b[6]),
		NBasis:      binary.LittleEndian.Uint32(b[8:]),
		NOcc:        binary.LittleEndian.Uint32(b[12:]),
		NWord:       binary.LittleEndian.Uint32(b[16:]),
		NDet:        binary.LittleEndian.Uint64(b[20:]),
		RawLen:      binary.LittleEndian.Uint64(b[28:]),
		PayloadLen:  binary.LittleEndian.Uint64(b[36:]),
		Checksum:    binary.LittleEndian.Uint32(b[44:]),
	}
	if h.Version == 0 || h.Version > Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

func (h *Header) validate() error {
	if !h.Compression.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCompression, h.Compression)
	}
	if h.NBasis == 0 || h.NOcc > h.NBasis {
		return fmt.Errorf("%w: nbasis=%d nocc=%d", ErrCorrupt, h.NBasis, h.NOcc)
	}
	if int(h.NWord) != det.NumWords(int(h.NBasis)) {
		return fmt.Errorf("%w: nword=%d for nbasis=%d", ErrCorrupt, h.NWord, h.NBasis)
	}
	if h.NDet > math.MaxInt64/8/uint64(h.NWord) || h.RawLen != h.NDet*uint64(h.NWord)*8 {
		return fmt.Errorf("%w: raw length %d for %d determinants", ErrCorrupt, h.RawLen, h.NDet)
	}
	if h.Compression == CompressionNone && h.PayloadLen != h.RawLen {
		return fmt.Errorf("%w: payload length %d, want %d", ErrCorrupt, h.PayloadLen, h.RawLen)
	}
	return nil
}
