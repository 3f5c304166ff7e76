package persistence

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/pairci/blobstore"
	"github.com/hupe1980/pairci/resource"
	"github.com/hupe1980/pairci/wfn"
)

// Encode writes w as a snapshot to dst and returns the number of bytes written.
func Encode(dst io.Writer, w *wfn.Wavefunction, c Compression) (int64, error) {
	if !c.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
	words := w.ToDetArray()
	raw := make([]byte, 0, len(words)*8)
	for _, word := range words {
		raw = binary.LittleEndian.AppendUint64(raw, word)
	}
	payload, used, err := compress(raw, c)
	if err != nil {
		return 0, err
	}

	h := Header{
		Version:     Version,
		Compression: used,
		NBasis:      uint32(w.NBasis()),
		NOcc:        uint32(w.NOcc()),
		NWord:       uint32(w.NWord()),
		NDet:        uint64(len(words) / w.NWord()),
		RawLen:      uint64(len(raw)),
		PayloadLen:  uint64(len(payload)),
		Checksum:    Checksum(payload),
	}
	hdr := h.AppendBinary(make([]byte, 0, HeaderSize))

	n, err := dst.Write(hdr)
	total := int64(n)
	if err != nil {
		return total, err
	}
	n, err = dst.Write(payload)
	total += int64(n)
	return total, err
}

// Decode reads a snapshot from r.
func Decode(r io.Reader, opts ...wfn.Option) (*wfn.Wavefunction, error) {
	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrCorrupt, err)
	}
	h, err := ParseHeader(hdr)
	if err != nil {
		return nil, err
	}

	// Grow with the data actually present so a lying header cannot force a
	// huge allocation.
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, int64(h.PayloadLen))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: payload truncated at %d of %d bytes", ErrCorrupt, n, h.PayloadLen)
		}
		return nil, err
	}
	return decodePayload(h, buf.Bytes(), opts)
}

// DecodeBytes decodes a snapshot held entirely in memory. Trailing bytes are
// rejected.
func DecodeBytes(data []byte, opts ...wfn.Option) (*wfn.Wavefunction, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)-HeaderSize) != h.PayloadLen {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(data)-HeaderSize, h.PayloadLen)
	}
	return decodePayload(h, data[HeaderSize:], opts)
}

func decodePayload(h Header, payload []byte, opts []wfn.Option) (*wfn.Wavefunction, error) {
	if err := verify(payload, h.Checksum); err != nil {
		return nil, err
	}
	raw, err := decompress(payload, h.Compression, h.RawLen)
	if err != nil {
		return nil, err
	}
	words := make([]uint64, len(raw)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	w, err := wfn.FromDetArray(int(h.NBasis), int(h.NOcc), int(h.NDet), words, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return w, nil
}

// Save writes w to store under name. The blob is only published when the
// whole snapshot was written.
func Save(ctx context.Context, store blobstore.Store, name string, w *wfn.Wavefunction, opts ...Option) (int64, error) {
	o := applyOptions(opts)
	start := time.Now()

	blob, err := store.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create %q: %w", name, err)
	}
	n, err := Encode(resource.NewRateLimitedWriter(ctx, blob, o.rc), w, o.compression)
	if err != nil {
		_ = blob.Abort()
		return n, fmt.Errorf("write %q: %w", name, err)
	}
	if err := blob.Close(); err != nil {
		return n, fmt.Errorf("publish %q: %w", name, err)
	}

	o.logger.DebugContext(ctx, "snapshot saved",
		slog.String("name", name),
		slog.Int("ndet", w.Len()),
		slog.Int64("bytes", n),
		slog.String("compression", o.compression.String()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return n, nil
}

// Load reads the snapshot stored under name.
func Load(ctx context.Context, store blobstore.Store, name string, opts ...Option) (*wfn.Wavefunction, error) {
	o := applyOptions(opts)
	start := time.Now()

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	defer blob.Close()

	var w *wfn.Wavefunction
	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, fmt.Errorf("map %q: %w", name, err)
		}
		if err := o.rc.AcquireIO(ctx, len(data)); err != nil {
			return nil, err
		}
		w, err = DecodeBytes(data, o.wfnOpts...)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", name, err)
		}
	} else {
		rd, err := blob.ReadRange(ctx, 0, blob.Size())
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		defer rd.Close()
		w, err = Decode(resource.NewRateLimitedReader(ctx, rd, o.rc), o.wfnOpts...)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", name, err)
		}
	}

	o.logger.DebugContext(ctx, "snapshot loaded",
		slog.String("name", name),
		slog.Int("ndet", w.Len()),
		slog.Int64("bytes", blob.Size()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return w, nil
}
