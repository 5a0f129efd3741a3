package dumps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/orenro/wp-download/internal/config"
	wphttp "github.com/orenro/wp-download/internal/http"
)

const catalogTemplate = `
[Configuration]
base_url = %s

[Templates]
language_dir_format = ${langcode}
file_format = ${langcode}wiki-${date}-${filename}.${filetype}

[Files]
pages-articles = yes
redirect = yes
langlinks = no

[Filetypes]
pages-articles = xml.bz2
redirect = sql.gz
langlinks = sql.gz

[Languages]
en = yes
`

func loadCatalog(t *testing.T, baseURL string) *config.Configuration {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wpdownloadrc")
	if err := os.WriteFile(path, []byte(fmt.Sprintf(catalogTemplate, baseURL)), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

// countingLister records listing requests and serves a fixed page.
type countingLister struct {
	calls int
	page  string
	err   error
}

func (l *countingLister) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return io.NopCloser(strings.NewReader(l.page)), nil
}

func listingPage(dates ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><a href="../">../</a>` + "\n")
	for _, d := range dates {
		fmt.Fprintf(&b, `<a href="%s/">%s/</a>                01-Feb-2023 12:00    -`+"\n", d, d)
	}
	b.WriteString(`<a href="latest/">latest/</a></body></html>`)
	return b.String()
}

func date(s string) time.Time {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func newLocator(t *testing.T, lister Lister, custom map[string]time.Time) *Locator {
	t.Helper()
	loc, err := NewLocator(loadCatalog(t, "https://dumps.example.org/"), lister, Options{
		CustomDates: custom,
		Logger:      zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("NewLocator: %v", err)
	}
	return loc
}

func TestLatestDumpDate(t *testing.T) {
	tests := []struct {
		name string
		page string
		want time.Time
	}{
		{"single", listingPage("20230101"), date("20230101")},
		{"max of several", listingPage("20230201", "20221220", "20230101"), date("20230201")},
		{"empty listing", listingPage(), NoDump},
		{"malformed date ignored", listingPage("20231399", "20230101"), date("20230101")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := newLocator(t, &countingLister{page: tt.page}, nil)
			got, err := loc.LatestDumpDate(context.Background(), "en")
			if err != nil {
				t.Fatalf("LatestDumpDate: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("LatestDumpDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLatestDumpDateCustom(t *testing.T) {
	lister := &countingLister{page: listingPage("20230201")}
	loc := newLocator(t, lister, map[string]time.Time{"en": date("20220101")})

	got, err := loc.LatestDumpDate(context.Background(), "en")
	if err != nil {
		t.Fatalf("LatestDumpDate: %v", err)
	}
	if !got.Equal(date("20220101")) {
		t.Errorf("expected custom date, got %v", got)
	}
	if lister.calls != 0 {
		t.Errorf("expected no listing request, got %d", lister.calls)
	}

	// Other languages are still discovered remotely.
	if _, err := loc.LatestDumpDate(context.Background(), "de"); err != nil {
		t.Fatalf("LatestDumpDate: %v", err)
	}
	if lister.calls != 1 {
		t.Errorf("expected one listing request, got %d", lister.calls)
	}
}

func TestLatestDumpDateRetrievalError(t *testing.T) {
	cause := errors.New("connection refused")
	loc := newLocator(t, &countingLister{err: cause}, nil)

	_, err := loc.LatestDumpDate(context.Background(), "en")

	var retrievalErr *RetrievalError
	if !errors.As(err, &retrievalErr) {
		t.Fatalf("expected *RetrievalError, got %v", err)
	}
	if retrievalErr.Language != "en" {
		t.Errorf("expected language en, got %s", retrievalErr.Language)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected error to wrap cause, got %v", err)
	}
}

func TestBuildURL(t *testing.T) {
	loc := newLocator(t, &countingLister{}, nil)

	got, err := loc.BuildURL("en", "pages-articles", date("20230201"))
	if err != nil {
		t.Fatalf("BuildURL: %v", err)
	}
	want := "https://dumps.example.org/en/20230201/enwiki-20230201-pages-articles.xml.bz2"
	if got != want {
		t.Errorf("BuildURL() = %q, want %q", got, want)
	}

	got, err = loc.BuildURL(Entities, "pages-articles", date("20230102"))
	if err != nil {
		t.Fatalf("BuildURL: %v", err)
	}
	want = "https://dumps.example.org/wikidatawiki/entities/20230102/wikidata-20230102-all.json.gz"
	if got != want {
		t.Errorf("BuildURL(entities) = %q, want %q", got, want)
	}

	if _, err := loc.BuildURL("en", "no-such-type", date("20230201")); !errors.Is(err, config.ErrOption) {
		t.Errorf("expected ErrOption for unknown file type, got %v", err)
	}
}

func TestLanguageURL(t *testing.T) {
	loc := newLocator(t, &countingLister{}, nil)

	got, err := loc.LanguageURL("en")
	if err != nil {
		t.Fatalf("LanguageURL: %v", err)
	}
	if got != "https://dumps.example.org/en/" {
		t.Errorf("unexpected language URL %q", got)
	}

	got, err = loc.LanguageURL(Entities)
	if err != nil {
		t.Fatalf("LanguageURL: %v", err)
	}
	if got != "https://dumps.example.org/wikidatawiki/entities/" {
		t.Errorf("unexpected entities URL %q", got)
	}
}

func TestTasks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/en/" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, listingPage("20230101", "20230201"))
	}))
	defer server.Close()

	client := wphttp.NewClient(wphttp.DefaultOptions())
	loc, err := NewLocator(loadCatalog(t, server.URL+"/"), client, Options{Logger: zaptest.NewLogger(t)})
	if err != nil {
		t.Fatalf("NewLocator: %v", err)
	}

	seq := loc.Tasks(context.Background(), "en")
	if seq.Err() != nil {
		t.Fatalf("Tasks: %v", seq.Err())
	}
	if !seq.Date().Equal(date("20230201")) {
		t.Errorf("expected date 2023-02-01, got %v", seq.Date())
	}

	var tasks []Task
	for {
		task, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		tasks = append(tasks, task)
	}

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	// Enabled files are sorted: pages-articles before redirect.
	if tasks[0].FileType != "pages-articles" || tasks[1].FileType != "redirect" {
		t.Errorf("unexpected task order: %s, %s", tasks[0].FileType, tasks[1].FileType)
	}
	if !strings.Contains(tasks[0].URL, "/en/20230201/") {
		t.Errorf("expected URL below /en/20230201/, got %s", tasks[0].URL)
	}
	if tasks[0].FileName() != "enwiki-20230201-pages-articles.xml.bz2" {
		t.Errorf("unexpected file name %s", tasks[0].FileName())
	}

	wantPath := filepath.Join("base", "en", "20230201", "enwiki-20230201-redirect.sql.gz")
	if got := tasks[1].LocalPath("base"); got != wantPath {
		t.Errorf("LocalPath() = %s, want %s", got, wantPath)
	}

	// The sequence cannot be restarted.
	if _, err := seq.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after exhaustion, got %v", err)
	}
}

func TestTasksDiscoveryFailure(t *testing.T) {
	loc := newLocator(t, &countingLister{err: errors.New("timeout")}, nil)

	seq := loc.Tasks(context.Background(), "en")
	if seq.Err() == nil {
		t.Fatal("expected discovery error")
	}
	if _, err := seq.Next(); err != io.EOF {
		t.Errorf("expected empty sequence, got %v", err)
	}
}

func TestTasksNoDump(t *testing.T) {
	loc := newLocator(t, &countingLister{page: listingPage()}, nil)

	seq := loc.Tasks(context.Background(), "en")
	if !errors.Is(seq.Err(), ErrNoDump) {
		t.Errorf("expected ErrNoDump, got %v", seq.Err())
	}
	if _, err := seq.Next(); err != io.EOF {
		t.Errorf("expected empty sequence, got %v", err)
	}
}

func TestNewLocatorBadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wpdownloadrc")
	content := strings.Replace(fmt.Sprintf(catalogTemplate, "https://dumps.example.org/"),
		"${langcode}wiki-${date}", "${lang}wiki-${date}", 1)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, err = NewLocator(cfg, &countingLister{}, Options{})
	if !errors.Is(err, config.ErrTemplate) {
		t.Errorf("expected ErrTemplate, got %v", err)
	}
}

func TestParseCustomDates(t *testing.T) {
	dates, err := ParseCustomDates([]string{"en:20230101", "entities:20230102"})
	if err != nil {
		t.Fatalf("ParseCustomDates: %v", err)
	}
	if !dates["en"].Equal(date("20230101")) || !dates[Entities].Equal(date("20230102")) {
		t.Errorf("unexpected dates: %v", dates)
	}

	for _, bad := range []string{"en", ":20230101", "en:2023-01-01", "en:20231301"} {
		if _, err := ParseCustomDates([]string{bad}); err == nil {
			t.Errorf("ParseCustomDates(%q): expected error", bad)
		}
	}
}
