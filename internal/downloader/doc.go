// Package downloader mirrors Wikipedia dump files to the local filesystem.
//
// This package coordinates between the HTTP client and the dump Locator. For
// each language it resolves the latest dump, creates the local directory, and
// processes the dump's files one after another.
//
// # Usage
//
//	d := downloader.New(client, locator, catalog, downloader.Options{
//	    Resume:      true,
//	    MaxAttempts: 3,
//	    Logger:      logger,
//	})
//
//	summary, err := d.DownloadAllLanguages(ctx, "/srv/dumps")
//
// # Per-file Lifecycle
//
//	Init -> Probing -> Skipped
//	                -> Transferring -> Success
//	                                -> Retry -> Transferring
//	                                -> RetryLimitExceeded
//
// A file is skipped when a local copy of the same size as the remote file
// exists (unless Force is set). Otherwise it is transferred into a ".part"
// file, resumed with a range request when Resume is set, and renamed to its
// final name once complete. A ".part" file at rest always means an
// interrupted transfer.
//
// # Failure Handling
//
// Per-file failures (see ErrDownload) are retried up to MaxAttempts, then
// logged; the remaining files still run. A language whose dump date cannot
// be discovered is skipped as a whole. Neither aborts the run.
package downloader
