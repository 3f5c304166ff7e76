// Package minio stores determinant snapshots in MinIO or any other
// S3-compatible server (Ceph, Garage, SeaweedFS) through the MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    return err
//	}
//	store := minioblob.NewStore(client, "ci-runs", "h2o/")
//	err = persistence.Save(ctx, store, "hci-1e-4.pci", w)
package minio
