// Package container implements the append-only storage behind the determinant store.
package container

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/pairci/resource"
)

const (
	// segmentBits determines the size of each segment.
	// 12 bits = 4096 records per segment.
	segmentBits = 12
	segmentSize = 1 << segmentBits
	segmentMask = segmentSize - 1
)

// WordArray is a thread-safe, segmented array of fixed-width word records.
// Segments are never moved once allocated, so record views stay valid while
// the array grows. Growth is serialized; reads and writes of distinct
// records are lock-free.
type WordArray struct {
	stride   int
	segments atomic.Pointer[[]*segment]
	mu       sync.Mutex // Protects growth
	rc       *resource.Controller
}

type segment struct {
	words []uint64
}

// NewWordArray creates an empty array of records of stride words each.
// Segment memory is accounted against rc, which may be nil.
func NewWordArray(stride int, rc *resource.Controller) *WordArray {
	a := &WordArray{stride: stride, rc: rc}
	segments := make([]*segment, 0)
	a.segments.Store(&segments)
	return a
}

// Stride returns the number of words per record.
func (a *WordArray) Stride() int { return a.stride }

// Cap returns the number of records that can be stored without growing.
func (a *WordArray) Cap() int {
	return len(*a.segments.Load()) * segmentSize
}

func (a *WordArray) segmentBytes() int64 {
	return int64(segmentSize) * int64(a.stride) * 8
}

// Grow ensures capacity for at least n records.
// It fails with resource.ErrMemoryLimitExceeded if the controller refuses
// the allocation; segments acquired before the failure are kept.
func (a *WordArray) Grow(n int) error {
	if n <= a.Cap() {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	current := *a.segments.Load()
	need := (n + segmentSize - 1) >> segmentBits
	if need <= len(current) {
		return nil
	}

	grown := make([]*segment, len(current), need)
	copy(grown, current)
	for len(grown) < need {
		if err := a.rc.AcquireMemory(a.segmentBytes()); err != nil {
			a.segments.Store(&grown)
			return fmt.Errorf("grow to %d records: %w", n, err)
		}
		grown = append(grown, &segment{words: make([]uint64, segmentSize*a.stride)})
	}
	a.segments.Store(&grown)
	return nil
}

// At returns a view of record i. The caller must ensure i < Cap().
func (a *WordArray) At(i int) []uint64 {
	seg := (*a.segments.Load())[i>>segmentBits]
	off := (i & segmentMask) * a.stride
	return seg.words[off : off+a.stride : off+a.stride]
}

// Set copies rec into slot i. The caller must ensure i < Cap() and that no
// other goroutine writes slot i concurrently.
func (a *WordArray) Set(i int, rec []uint64) {
	copy(a.At(i), rec)
}

// Truncate releases every segment that holds no record below n.
func (a *WordArray) Truncate(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := *a.segments.Load()
	keep := (n + segmentSize - 1) >> segmentBits
	if keep >= len(current) {
		return
	}
	for range current[keep:] {
		a.rc.ReleaseMemory(a.segmentBytes())
	}
	kept := make([]*segment, keep)
	copy(kept, current[:keep])
	a.segments.Store(&kept)
}

// Release drops all segments and returns their memory to the controller.
func (a *WordArray) Release() {
	a.Truncate(0)
}
