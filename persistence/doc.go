// Package persistence stores wavefunctions as binary determinant snapshots.
//
// A snapshot is a fixed 48-byte little-endian header followed by the payload:
// the determinant words of every determinant in sequence order, encoded as
// little-endian uint64 and optionally compressed with zstd or lz4.
//
//	offset size field
//	0      4    magic "PCI1"
//	4      2    format version
//	6      1    compression
//	7      1    reserved
//	8      4    nbasis
//	12     4    nocc
//	16     4    nword
//	20     8    ndet
//	28     8    raw payload length
//	36     8    stored payload length
//	44     4    CRC32C of the stored payload
//
// Snapshots are written and read through a blobstore.Store, so the same
// file can live on local disk, in memory, in MinIO or in S3.
package persistence
