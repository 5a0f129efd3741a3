package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/orenro/wp-download/internal/progress"
	"github.com/orenro/wp-download/internal/publish"
)

func newPublishCmd(a *app) *cobra.Command {
	var (
		bucketURL string
		prefix    string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "publish <path>",
		Short: "Copy completed dumps below path to a bucket",
		Long: `Copy completed dumps below path to a gocloud bucket (s3://, gs://,
file://, mem://). Partial downloads are ignored, and objects that already
exist with the same size are not uploaded again.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bucketURL == "" {
				return argErrorf("--bucket is required")
			}
			return a.publish(cmd, args[0], bucketURL, prefix, force)
		},
	}

	cmd.Flags().StringVar(&bucketURL, "bucket", "", "Destination bucket URL (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix for object keys")
	cmd.Flags().BoolVar(&force, "force", false, "Upload files even if an object of the same size exists")

	return cmd
}

func (a *app) publish(cmd *cobra.Command, root, bucketURL, prefix string, force bool) error {
	ctx := cmd.Context()

	if _, err := os.Stat(root); err != nil {
		return err
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return fmt.Errorf("open bucket: %w", err)
	}
	defer bucket.Close()

	res, err := publish.Publish(ctx, bucket, root, prefix, publish.Options{
		Force:  force,
		Logger: a.logger,
	})
	if res != nil {
		a.logger.Info("publish finished",
			zap.String("bucket", bucketURL),
			zap.Int("uploaded", len(res.Uploaded)),
			zap.Int("skipped", len(res.Skipped)),
			zap.String("bytes", progress.FormatBytes(res.Bytes)))
	}
	return err
}
