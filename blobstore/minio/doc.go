// Package minio stores run artifacts on MinIO and other S3-compatible
// servers (Ceph, Garage, SeaweedFS) through minio-go, without the AWS SDK.
//
//	store, err := minio.Dial(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    Bucket:    "artifacts",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//	if err != nil {
//	    return err
//	}
//	err = archive.Save(ctx, store, "runs/1/unique.vpar", reduction)
package minio
