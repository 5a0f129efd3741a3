package report

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orenro/wp-download/internal/downloader"
	"github.com/orenro/wp-download/internal/dumps"
)

// Report is the serialized form of a downloader.Summary.
type Report struct {
	RunID     string     `yaml:"run_id"`
	Started   time.Time  `yaml:"started"`
	Finished  time.Time  `yaml:"finished"`
	Totals    Totals     `yaml:"totals"`
	Languages []Language `yaml:"languages"`
}

// Totals counts file outcomes across all languages.
type Totals struct {
	Downloaded int `yaml:"downloaded"`
	Skipped    int `yaml:"skipped"`
	Failed     int `yaml:"failed"`
}

// Language is the outcome of one language.
type Language struct {
	Language string `yaml:"language"`
	Date     string `yaml:"date,omitempty"`
	Skipped  bool   `yaml:"skipped,omitempty"`
	Error    string `yaml:"error,omitempty"`
	Files    []File `yaml:"files,omitempty"`
}

// File is the outcome of one dump file.
type File struct {
	Type     string `yaml:"type"`
	URL      string `yaml:"url"`
	Path     string `yaml:"path"`
	Status   string `yaml:"status"`
	Bytes    int64  `yaml:"bytes"`
	Attempts int    `yaml:"attempts,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// FromSummary converts s into a Report.
func FromSummary(s *downloader.Summary) *Report {
	r := &Report{
		RunID:    s.RunID,
		Started:  s.Started.UTC(),
		Finished: s.Finished.UTC(),
	}
	r.Totals.Downloaded, r.Totals.Skipped, r.Totals.Failed = s.Counts()

	for _, lang := range s.Languages {
		l := Language{
			Language: lang.Language,
			Skipped:  lang.Skipped,
			Error:    lang.Error,
		}
		if !lang.Date.IsZero() {
			l.Date = lang.Date.Format(dumps.DateLayout)
		}
		for _, f := range lang.Files {
			l.Files = append(l.Files, File{
				Type:     f.FileType,
				URL:      f.URL,
				Path:     f.Path,
				Status:   string(f.Status),
				Bytes:    f.Bytes,
				Attempts: f.Attempts,
				Error:    f.Error,
			})
		}
		r.Languages = append(r.Languages, l)
	}
	return r
}

// Write writes s as a YAML report to path, replacing any existing file.
func Write(path string, s *downloader.Summary) error {
	data, err := yaml.Marshal(FromSummary(s))
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Read reads a report written by Write.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
