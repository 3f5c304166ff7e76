package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMagic is returned when a blob does not start with the snapshot magic.
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrCorrupt is returned when the header or payload is inconsistent.
	ErrCorrupt = errors.New("corrupt snapshot")

	// ErrUnknownCompression is returned for an unrecognized compression byte.
	ErrUnknownCompression = errors.New("unknown compression")
)

// ChecksumMismatchError is returned when payload verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// Unwrap lets errors.Is(err, ErrCorrupt) match checksum failures.
func (e *ChecksumMismatchError) Unwrap() error { return ErrCorrupt }
