package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload codec.
type Compression uint8

const (
	// CompressionNone stores the payload as raw words.
	CompressionNone Compression = 0
	// CompressionLZ4 uses lz4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd (better ratio).
	CompressionZstd Compression = 2
)

func (c Compression) valid() bool {
	return c <= CompressionZstd
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

const (
	// lz4 cannot expand data by more than this factor.
	maxLZ4Ratio = 255
	// A zstd RLE block of 4 bytes decodes to at most 128 KiB.
	maxZstdRatio = 1 << 15
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

// getZstdDecoder returns a decoder whose DecodeAll never writes past
// cap(dst).
func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecodeAllCapLimit(true),
	)
}

// compress encodes raw with c. When the codec does not shrink the data the
// raw bytes are returned with CompressionNone.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if len(raw) == 0 {
		return raw, CompressionNone, nil
	}
	var out []byte
	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, c, err
		}
		out = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, c, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
	if len(out) == 0 || len(out) >= len(raw) {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

// decompress reverses compress, checking the decoded length against rawLen.
func decompress(payload []byte, c Compression, rawLen uint64) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionLZ4:
		if rawLen > uint64(len(payload))*maxLZ4Ratio {
			return nil, fmt.Errorf("%w: lz4 raw length %d exceeds bound", ErrCorrupt, rawLen)
		}
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(n) != rawLen {
			return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, n, rawLen)
		}
		return raw, nil
	case CompressionZstd:
		if rawLen > uint64(len(payload))*maxZstdRatio {
			return nil, fmt.Errorf("%w: zstd raw length %d exceeds bound", ErrCorrupt, rawLen)
		}
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		raw, err := dec.DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint64(len(raw)) != rawLen {
			return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, len(raw), rawLen)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
}
