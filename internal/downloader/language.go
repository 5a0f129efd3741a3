package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenro/wp-download/internal/config"
	"github.com/orenro/wp-download/internal/dumps"
)

// FileStatus is the outcome of processing one dump file.
type FileStatus string

// File outcomes.
const (
	StatusDownloaded FileStatus = "downloaded"
	StatusSkipped    FileStatus = "skipped"
	StatusFailed     FileStatus = "failed"
)

// FileResult records what happened to one dump file.
type FileResult struct {
	FileType string
	URL      string
	Path     string
	Status   FileStatus
	Bytes    int64
	Attempts int
	Error    string
}

// LanguageResult records what happened to one language.
type LanguageResult struct {
	Language string
	Date     time.Time
	Skipped  bool   // The whole language was skipped
	Error    string // Why the language was skipped
	Files    []FileResult
}

// Summary describes a complete run over all enabled languages.
type Summary struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Languages []LanguageResult
}

// Counts returns the number of downloaded, skipped and failed files.
func (s *Summary) Counts() (downloaded, skipped, failed int) {
	for _, lang := range s.Languages {
		for _, f := range lang.Files {
			switch f.Status {
			case StatusDownloaded:
				downloaded++
			case StatusSkipped:
				skipped++
			case StatusFailed:
				failed++
			}
		}
	}
	return downloaded, skipped, failed
}

// SkippedLanguages returns the languages that were skipped entirely.
func (s *Summary) SkippedLanguages() []string {
	var langs []string
	for _, lang := range s.Languages {
		if lang.Skipped {
			langs = append(langs, lang.Language)
		}
	}
	return langs
}

// DownloadLanguage downloads every enabled file of language's latest dump
// into base/language/YYYYMMDD.
//
// An error is returned only when the language as a whole could not be
// processed (date discovery or directory creation failed). Failures of
// individual files are logged, recorded in the result, and do not stop the
// remaining files.
func (d *Downloader) DownloadLanguage(ctx context.Context, language, base string) (LanguageResult, error) {
	res := LanguageResult{Language: language}

	seq := d.tasks.Tasks(ctx, language)
	if err := seq.Err(); err != nil {
		return res, err
	}
	res.Date = seq.Date()

	dir := seq.Dir(base)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		d.logger.Info("creating directory", zap.String("path", dir))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return res, fmt.Errorf("create directory %s: %w", dir, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		task, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}

		res.Files = append(res.Files, d.downloadTask(ctx, task, base))
	}

	return res, nil
}

func (d *Downloader) downloadTask(ctx context.Context, task dumps.Task, base string) FileResult {
	path := task.LocalPath(base)
	log := d.logger.With(zap.String("language", task.Language), zap.String("file", task.FileName()))

	res := FileResult{
		FileType: task.FileType,
		URL:      task.URL,
		Path:     path,
	}

	if d.ShouldSkip(ctx, task.URL, path) {
		log.Info("skipped, local copy is complete")
		res.Status = StatusSkipped
		res.Bytes = fileSize(path)
		return res
	}

	attempts, err := d.RetrieveWithRetry(ctx, task.URL, path)
	res.Attempts = attempts
	if err != nil {
		log.Error("download failed", zap.Error(err))
		res.Status = StatusFailed
		res.Error = err.Error()
		return res
	}

	log.Info("downloaded", zap.Int("attempts", attempts))
	res.Status = StatusDownloaded
	res.Bytes = fileSize(path)
	return res
}

// DownloadAllLanguages downloads every enabled language below base, in
// configuration order.
//
// A language that cannot be processed is logged and skipped. The run only
// stops early when ctx is cancelled or the configuration itself is broken;
// in both cases the summary so far is returned along with the error.
func (d *Downloader) DownloadAllLanguages(ctx context.Context, base string) (*Summary, error) {
	languages, err := d.languages.EnabledLanguages()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	defer func() { summary.Finished = time.Now() }()

	for _, language := range languages {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		d.logger.Info("processing language", zap.String("language", language))

		res, err := d.DownloadLanguage(ctx, language, base)
		if err != nil {
			if ctx.Err() != nil {
				summary.Languages = append(summary.Languages, res)
				return summary, ctx.Err()
			}

			var cfgErr *config.Error
			if errors.As(err, &cfgErr) {
				return summary, err
			}

			d.logger.Error("download failed, skipping language",
				zap.String("language", language), zap.Error(err))
			res.Skipped = true
			res.Error = err.Error()
		}
		summary.Languages = append(summary.Languages, res)
	}

	return summary, nil
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
