// Package s3 issues presigned upload URLs for task attachments and reads
// attachment objects back from the bucket.
package s3
