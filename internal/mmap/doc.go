// Package mmap maps snapshot files read-only into memory.
//
// On unix systems the file is mapped with mmap(2) and the pages are
// advised for sequential access. Elsewhere the file is read into a heap
// buffer, so callers never need a separate code path.
package mmap
