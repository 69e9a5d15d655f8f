// Package storage provides the object store abstraction used for job
// outputs and for the credentials document.
//
// # Backends
//
//   - storage/s3: Amazon S3 and S3-compatible stores, with presigned URLs
//   - storage/local: local filesystem for development and tests
//   - storage/gcs: the Google Cloud Storage bucket that stages audio for
//     recognition (constructed directly with an authorized client)
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  bucket: "transcribe-outputs"
//	  region: "eu-west-1"
package storage
