package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/orenro/wp-download/internal/config"
	"github.com/orenro/wp-download/internal/downloader"
	"github.com/orenro/wp-download/internal/dumps"
	wphttp "github.com/orenro/wp-download/internal/http"
	"github.com/orenro/wp-download/internal/report"
)

func newDownloadCmd(a *app) *cobra.Command {
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "download <path>",
		Short: "Download the latest dumps of all enabled languages below path",
		Long: `Download the latest dumps of all enabled languages below path.

Files whose local size matches the remote one are skipped unless --force is
given. Incomplete transfers are kept as <file>.part and continued with
--resume. Options can also be set as WPDOWNLOAD_<OPTION> environment
variables, e.g. WPDOWNLOAD_LIMIT_RATE=2MiB.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.NewViper()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			opts, err := config.LoadOptions(v)
			if err != nil {
				return &exitError{code: ExitInvalidArgs, err: err}
			}
			return a.download(cmd, args[0], opts)
		},
	}

	fs := cmd.Flags()
	fs.String(config.KeyTimeout, config.FormatTimeout(d.Timeout), "Network timeout per connect and read, in seconds or as a duration like 1m30s")
	fs.Int(config.KeyRetries, d.Retries, "Attempts per file transfer, size probe and listing page")
	fs.Bool(config.KeyForce, d.Force, "Download files even if the local copy is complete")
	fs.Bool(config.KeyResume, d.Resume, "Continue partial downloads")
	fs.BoolP(config.KeyQuiet, "q", d.Quiet, "Do not show progress bars")
	fs.StringSlice(config.KeyCustomDump, nil, "Use a fixed dump date for a language (lang:YYYYMMDD, repeatable)")
	fs.String(config.KeyLimitRate, "", "Maximum transfer rate per second, e.g. 500KiB")
	fs.Duration(config.KeyRetryBackoff, d.Retry.Backoff, "Initial wait between attempts")
	fs.Duration(config.KeyRetryMaxBackoff, d.Retry.MaxBackoff, "Maximum wait between attempts")
	fs.String(config.KeyReport, "", "Write a YAML run report to this file")

	return cmd
}

func (a *app) download(cmd *cobra.Command, base string, opts config.Options) error {
	ctx := cmd.Context()

	fi, err := os.Stat(base)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		a.logger.Info("creating directory", zap.String("path", base))
		if err := os.MkdirAll(base, 0755); err != nil {
			return err
		}
	case err != nil:
		return err
	case !fi.IsDir():
		return argErrorf("%s is not a directory", base)
	}

	catalog, err := a.loadCatalog()
	if err != nil {
		return err
	}

	client := newClient(opts)
	locator, err := newLocator(a, catalog, client, opts)
	if err != nil {
		return err
	}

	var limiter *rate.Limiter
	if opts.LimitRate > 0 {
		// Each read waits for its full size; the burst must hold a block.
		limiter = rate.NewLimiter(rate.Limit(opts.LimitRate), max(int(opts.LimitRate), downloader.BlockSize))
	}

	d := downloader.New(client, locator, catalog, downloader.Options{
		Force:          opts.Force,
		Resume:         opts.Resume,
		Quiet:          opts.Quiet,
		MaxAttempts:    opts.Retries,
		Limiter:        limiter,
		ProgressOutput: cmd.OutOrStdout(),
		Logger:         a.logger,
	})

	summary, err := d.DownloadAllLanguages(ctx, base)
	if summary != nil {
		downloaded, skipped, failed := summary.Counts()
		a.logger.Info("run finished",
			zap.String("run_id", summary.RunID),
			zap.Int("downloaded", downloaded),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed),
			zap.Strings("skipped_languages", summary.SkippedLanguages()),
			zap.Duration("elapsed", time.Since(summary.Started).Round(time.Second)))

		if opts.Report != "" {
			if werr := report.Write(opts.Report, summary); werr != nil {
				a.logger.Error("could not write report", zap.String("path", opts.Report), zap.Error(werr))
				if err == nil {
					err = werr
				}
			}
		}
	}
	return err
}

// newClient builds the HTTP client. Retries bounds every request the same
// way: a probe or listing fetch makes at most opts.Retries attempts.
func newClient(opts config.Options) *wphttp.Client {
	return wphttp.NewClient(wphttp.Options{
		Timeout:         opts.Timeout,
		RetryAttempts:   opts.Retries - 1,
		RetryBackoff:    opts.Retry.Backoff,
		RetryMaxBackoff: opts.Retry.MaxBackoff,
		UserAgent:       "wp-download",
	})
}

func newLocator(a *app, catalog *config.Configuration, client *wphttp.Client, opts config.Options) (*dumps.Locator, error) {
	custom, err := dumps.ParseCustomDates(opts.CustomDump)
	if err != nil {
		return nil, &exitError{code: ExitInvalidArgs, err: fmt.Errorf("--%s: %w", config.KeyCustomDump, err)}
	}
	return dumps.NewLocator(catalog, client, dumps.Options{
		CustomDates: custom,
		Logger:      a.logger,
	})
}
