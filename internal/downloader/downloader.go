package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/orenro/wp-download/internal/dumps"
	wphttp "github.com/orenro/wp-download/internal/http"
	"github.com/orenro/wp-download/internal/progress"
)

// BlockSize is the default size of each read from a response body.
const BlockSize = 8 * 1024

// PartSuffix marks a file whose transfer has not completed.
const PartSuffix = ".part"

// Client is the HTTP client used for transfers.
type Client interface {
	Head(ctx context.Context, url string) (*wphttp.FileInfo, error)
	GetFrom(ctx context.Context, url string, offset int64) (*wphttp.RangeResponse, error)
	Backoff(ctx context.Context, attempt int) error
}

// TaskSource yields the download tasks of a language.
type TaskSource interface {
	Tasks(ctx context.Context, language string) *dumps.Sequence
}

// LanguageSource lists the languages to download, in processing order.
type LanguageSource interface {
	EnabledLanguages() ([]string, error)
}

// Options configures the downloader.
type Options struct {
	// Force disables skipping files whose local size matches the remote one.
	Force bool

	// Resume continues partial transfers with a range request instead of
	// starting over.
	Resume bool

	// Quiet disables the progress bar.
	Quiet bool

	// MaxAttempts is the number of transfer attempts per file.
	// Default: 3
	MaxAttempts int

	// BlockSize is the size of each read from the response body.
	// Default: 8 KiB
	BlockSize int

	// Limiter optionally throttles transfers; one token per byte. Its burst
	// must be at least BlockSize.
	Limiter *rate.Limiter

	// ProgressOutput is where progress bars are drawn.
	// Default: os.Stdout
	ProgressOutput io.Writer

	// Logger receives skip, retry and failure events. Default: no-op.
	Logger *zap.Logger
}

// Downloader mirrors dump files to the local filesystem.
//
// It processes one file at a time. All decisions are based on the local
// filesystem and the remote content length; no other state is kept between
// runs.
type Downloader struct {
	client    Client
	tasks     TaskSource
	languages LanguageSource
	opts      Options
	logger    *zap.Logger
}

// New creates a Downloader.
func New(client Client, tasks TaskSource, languages LanguageSource, opts Options) *Downloader {
	// Apply defaults
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = BlockSize
	}
	if opts.ProgressOutput == nil {
		opts.ProgressOutput = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Downloader{
		client:    client,
		tasks:     tasks,
		languages: languages,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// probe fetches the metadata of the file at url. Statuses of 300 and above
// count as an empty file; other probe failures are returned.
func (d *Downloader) probe(ctx context.Context, url string) (*wphttp.FileInfo, error) {
	info, err := d.client.Head(ctx, url)
	if err != nil {
		var statusErr *wphttp.StatusError
		if errors.As(err, &statusErr) {
			return &wphttp.FileInfo{}, nil
		}
		return nil, err
	}
	return info, nil
}

func (d *Downloader) contentLength(ctx context.Context, url string) (int64, error) {
	info, err := d.probe(ctx, url)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// ShouldSkip reports whether the file at url is already present at path:
// a local file exists, its size equals the remote content length, and Force
// is not set.
func (d *Downloader) ShouldSkip(ctx context.Context, url, path string) bool {
	if d.opts.Force {
		return false
	}

	fi, err := os.Stat(path)
	if err != nil {
		return false
	}

	length, err := d.contentLength(ctx, url)
	if err != nil {
		d.logger.Warn("could not probe remote size",
			zap.String("file", filepath.Base(path)), zap.Error(err))
		return false
	}
	return length == fi.Size()
}

// Offset returns the byte offset to resume the transfer of url into path
// from: the local size if Resume is set, path exists, and the remote file is
// at least as large. Otherwise it returns 0.
func (d *Downloader) Offset(ctx context.Context, url, path string) (int64, error) {
	if !d.opts.Resume {
		return 0, nil
	}
	if _, err := os.Stat(path); err != nil {
		return 0, nil
	}

	length, err := d.contentLength(ctx, url)
	if err != nil {
		return 0, err
	}
	return d.offset(path, length), nil
}

func (d *Downloader) offset(path string, length int64) int64 {
	if !d.opts.Resume {
		return 0
	}
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if length >= fi.Size() {
		return fi.Size()
	}
	return 0
}

// Transfer performs a single attempt to copy url into path, resuming from
// the existing content of path where possible.
//
// On failure path is left as it is, so the next attempt can resume.
func (d *Downloader) Transfer(ctx context.Context, url, path string) (err error) {
	name := strings.TrimSuffix(filepath.Base(path), PartSuffix)

	info, err := d.probe(ctx, url)
	if err != nil {
		return fmt.Errorf("probe %s: %w", name, err)
	}
	length := info.Size
	offset := d.offset(path, length)

	if offset > 0 && offset == length {
		// Interrupted between the last write and the rename.
		d.logger.Info("partial file already complete", zap.String("file", name))
		return nil
	}
	if offset > 0 && !info.AcceptsRanges {
		d.logger.Warn("server does not accept range requests, restarting",
			zap.String("file", name), zap.Int64("offset", offset))
		offset = 0
	}

	resp, err := d.client.GetFrom(ctx, url, offset)
	if err != nil {
		var statusErr *wphttp.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("%w: %w", ErrDownload, err)
		}
		return err
	}
	defer resp.Body.Close()

	if offset > 0 {
		if !resp.Partial() {
			d.logger.Warn("server ignored range request, restarting",
				zap.String("file", name), zap.Int64("offset", offset))
			offset = 0
		} else if start, _, _, perr := wphttp.ParseContentRange(resp.ContentRange); perr == nil && start != offset {
			return fmt.Errorf("%w: server resumed %s at byte %d, want %d", ErrDownload, name, start, offset)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.Truncate(offset); err != nil {
		return err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if offset > 0 {
		d.logger.Info("resume", zap.String("file", name), zap.Int64("offset", offset))
	}

	var bar *progress.Bar
	if !d.opts.Quiet {
		bar = progress.NewBar(name, length, progress.Options{Output: d.opts.ProgressOutput})
		bar.Start(offset)
		defer bar.Finish()
	}

	read := offset
	buf := make([]byte, d.opts.BlockSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if d.opts.Limiter != nil {
				if err := d.opts.Limiter.WaitN(ctx, n); err != nil {
					return err
				}
			}
			if _, err := f.Write(buf[:n]); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			read += int64(n)

			if length >= 0 && read > length {
				return &OverrunError{URL: url, Expected: length, Received: read}
			}
			if bar != nil {
				bar.Update(read)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read %s: %w", name, readErr)
		}
	}

	if length >= 0 && read < length {
		return fmt.Errorf("%w: incomplete transfer of %s: %d of %d bytes", ErrDownload, name, read, length)
	}
	return nil
}

// RetrieveWithRetry downloads url to path, trying up to MaxAttempts times.
//
// Data is written to path+PartSuffix and renamed to path once complete; the
// rename is the only signal that a download finished. It returns the number
// of attempts made. When all attempts fail the error is a *RetryLimitError
// and the partial file stays in place.
func (d *Downloader) RetrieveWithRetry(ctx context.Context, url, path string) (int, error) {
	part := path + PartSuffix
	name := filepath.Base(path)

	var lastErr error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := d.client.Backoff(ctx, attempt-1); err != nil {
				return attempt - 1, err
			}
		}

		err := d.Transfer(ctx, url, part)
		if err == nil {
			if err := os.Rename(part, path); err != nil {
				return attempt, fmt.Errorf("rename %s: %w", part, err)
			}
			return attempt, nil
		}
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}

		lastErr = err
		d.logger.Error("transfer failed",
			zap.String("file", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.opts.MaxAttempts),
			zap.Error(err))
	}

	return d.opts.MaxAttempts, &RetryLimitError{URL: url, Attempts: d.opts.MaxAttempts, Err: lastErr}
}
