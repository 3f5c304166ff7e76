// Package s3 stores determinant snapshots in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "ci-runs",
//	    s3.WithPrefix("h2o/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	err = persistence.Save(ctx, store, "hci-1e-4.pci", w)
//
// Reads use ranged GETs. Streaming writes go through the multipart
// uploader and carry a CRC32C checksum.
package s3
