package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/orenro/wp-download/internal/downloader"
)

func testSummary() *downloader.Summary {
	started := time.Date(2023, 2, 3, 4, 0, 0, 0, time.UTC)
	return &downloader.Summary{
		RunID:    "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Started:  started,
		Finished: started.Add(72 * time.Minute),
		Languages: []downloader.LanguageResult{
			{
				Language: "de",
				Skipped:  true,
				Error:    "could not retrieve dump listing for de",
			},
			{
				Language: "en",
				Date:     time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
				Files: []downloader.FileResult{
					{FileType: "pages-articles", Status: downloader.StatusDownloaded, Bytes: 20000, Attempts: 2},
					{FileType: "redirect", Status: downloader.StatusSkipped, Bytes: 3000},
					{FileType: "langlinks", Status: downloader.StatusFailed, Attempts: 3, Error: "retry limit exceeded"},
				},
			},
		},
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")

	if err := Write(path, testSummary()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if r.RunID != "7c9e6679-7425-40de-944b-e07fc1f90ae7" {
		t.Errorf("unexpected run ID %q", r.RunID)
	}
	if r.Finished.Sub(r.Started) != 72*time.Minute {
		t.Errorf("unexpected duration %v", r.Finished.Sub(r.Started))
	}
	if r.Totals != (Totals{Downloaded: 1, Skipped: 1, Failed: 1}) {
		t.Errorf("unexpected totals %+v", r.Totals)
	}
	if len(r.Languages) != 2 {
		t.Fatalf("expected 2 languages, got %d", len(r.Languages))
	}
	if de := r.Languages[0]; !de.Skipped || de.Error == "" || de.Date != "" {
		t.Errorf("unexpected de entry %+v", de)
	}

	en := r.Languages[1]
	if en.Date != "20230201" {
		t.Errorf("expected date 20230201, got %q", en.Date)
	}
	if len(en.Files) != 3 || en.Files[0].Status != "downloaded" || en.Files[0].Attempts != 2 {
		t.Errorf("unexpected en files %+v", en.Files)
	}
}

func TestWriteFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := Write(path, testSummary()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	for _, want := range []string{
		"run_id: 7c9e6679-7425-40de-944b-e07fc1f90ae7",
		`date: "20230201"`,
		"status: failed",
		"downloaded: 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("report missing %q:\n%s", want, data)
		}
	}
}

func TestReadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := os.WriteFile(path, []byte("run_id: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Read(path); err == nil {
		t.Error("expected error for invalid report")
	}
}
