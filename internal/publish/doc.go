// Package publish copies completed dumps from a local mirror into a
// gocloud.dev/blob bucket.
//
// Only finished files are uploaded: files still carrying the partial-transfer
// suffix are ignored, and objects that already exist with the local size are
// left alone. Publishing the same tree twice therefore uploads nothing the
// second time.
//
// The bucket is opened by the caller, so any gocloud driver works:
//
//	bucket, err := blob.OpenBucket(ctx, "s3://dumps?region=eu-west-1")
//	res, err := publish.Publish(ctx, bucket, "/srv/wikipedia", "mirror/", publish.Options{})
package publish
