package publish

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/orenro/wp-download/internal/downloader"
)

// Options configures a publish run.
type Options struct {
	// Force uploads every file even if an object of the same size exists.
	Force bool

	// Logger receives upload and skip events. Default: no-op.
	Logger *zap.Logger
}

// Result lists the object keys handled by Publish.
type Result struct {
	Uploaded []string
	Skipped  []string
	Bytes    int64
}

// Publish uploads every completed file below root to bucket, keyed by
// prefix plus the slash-separated path relative to root.
func Publish(ctx context.Context, bucket *blob.Bucket, root, prefix string, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	res := &Result{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, downloader.PartSuffix) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		key := prefix + filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		if !opts.Force {
			same, err := sameSize(ctx, bucket, key, info.Size())
			if err != nil {
				return err
			}
			if same {
				opts.Logger.Debug("object up to date", zap.String("key", key))
				res.Skipped = append(res.Skipped, key)
				return nil
			}
		}

		if err := upload(ctx, bucket, key, path); err != nil {
			return err
		}
		opts.Logger.Info("uploaded", zap.String("key", key), zap.Int64("bytes", info.Size()))
		res.Uploaded = append(res.Uploaded, key)
		res.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return res, err
	}
	return res, nil
}

// sameSize reports whether key exists in bucket with the given size.
func sameSize(ctx context.Context, bucket *blob.Bucket, key string, size int64) (bool, error) {
	attrs, err := bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return attrs.Size == size, nil
}

func upload(ctx context.Context, bucket *blob.Bucket, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	return nil
}
