package dumps

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orenro/wp-download/internal/config"
)

// Entities is the pseudo language code for the Wikidata entity dumps.
const Entities = "entities"

// DateLayout is the format of dump dates in URLs and local paths.
const DateLayout = "20060102"

// NoDump is the date reported when no dump could be found.
var NoDump = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var dateMatcher = regexp.MustCompile(`<a href="(\d{8})/">[^<]*</a>`)

// Catalog is the part of the configuration a Locator reads.
type Catalog interface {
	Get(section, key string) (string, error)
	StringTemplate(name string) (config.Template, error)
	EnabledFiles() ([]string, error)
}

// Lister fetches directory-listing pages.
type Lister interface {
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options configures a Locator.
type Options struct {
	// CustomDates maps language codes to an operator-supplied dump date.
	// Languages listed here are never looked up remotely.
	CustomDates map[string]time.Time

	// Logger receives discovery events. Default: no-op.
	Logger *zap.Logger
}

// Locator maps language codes to dump download tasks.
type Locator struct {
	catalog    Catalog
	lister     Lister
	base       *url.URL
	langDir    config.Template
	fileFormat config.Template
	custom     map[string]time.Time
	logger     *zap.Logger
}

// NewLocator creates a Locator reading server and template settings from
// catalog. Templates are checked up front, so a template referring to an
// unknown placeholder fails here rather than halfway through a run.
func NewLocator(catalog Catalog, lister Lister, opts Options) (*Locator, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	rawBase, err := catalog.Get(config.SectionConfiguration, "base_url")
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(rawBase)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &config.Error{
			Kind:    config.ErrValue,
			Section: config.SectionConfiguration,
			Err:     fmt.Errorf("invalid base_url %q", rawBase),
		}
	}

	langDir, err := catalog.StringTemplate("language_dir_format")
	if err != nil {
		return nil, err
	}
	fileFormat, err := catalog.StringTemplate("file_format")
	if err != nil {
		return nil, err
	}

	if _, err := langDir.Substitute(map[string]string{"langcode": "xx"}); err != nil {
		return nil, err
	}
	if _, err := fileFormat.Substitute(fileValues("xx", "pages-articles", "xml.bz2", NoDump)); err != nil {
		return nil, err
	}

	custom := make(map[string]time.Time, len(opts.CustomDates))
	for lang, date := range opts.CustomDates {
		custom[lang] = date
	}

	return &Locator{
		catalog:    catalog,
		lister:     lister,
		base:       base,
		langDir:    langDir,
		fileFormat: fileFormat,
		custom:     custom,
		logger:     opts.Logger,
	}, nil
}

// ParseCustomDates parses "language:YYYYMMDD" pairs.
func ParseCustomDates(pairs []string) (map[string]time.Time, error) {
	dates := make(map[string]time.Time, len(pairs))
	for _, pair := range pairs {
		lang, raw, ok := strings.Cut(pair, ":")
		if !ok || lang == "" {
			return nil, fmt.Errorf("invalid custom dump %q: want language:YYYYMMDD", pair)
		}
		date, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid custom dump %q: %w", pair, err)
		}
		dates[lang] = date
	}
	return dates, nil
}

// LanguageDir returns the dump directory of language relative to the server
// base URL.
func (l *Locator) LanguageDir(language string) (string, error) {
	if language == Entities {
		return "wikidatawiki/entities", nil
	}
	return l.langDir.Substitute(map[string]string{"langcode": language})
}

// LanguageURL returns the URL of language's listing page.
func (l *Locator) LanguageURL(language string) (string, error) {
	dir, err := l.LanguageDir(language)
	if err != nil {
		return "", err
	}
	return l.resolve(dir + "/"), nil
}

// LatestDumpDate returns the date of the most recent dump for language.
//
// A custom date configured for language is returned without any network
// access. Otherwise the listing page is scanned and the latest date found is
// returned, or NoDump if the page lists none. A page that cannot be fetched
// yields a *RetrievalError.
func (l *Locator) LatestDumpDate(ctx context.Context, language string) (time.Time, error) {
	if date, ok := l.custom[language]; ok {
		return date, nil
	}

	listing, err := l.LanguageURL(language)
	if err != nil {
		return time.Time{}, err
	}

	dates, err := l.dumpDates(ctx, listing)
	if err != nil {
		return time.Time{}, &RetrievalError{Language: language, URL: listing, Err: err}
	}

	latest := NoDump
	for _, d := range dates {
		if d.After(latest) {
			latest = d
		}
	}
	return latest, nil
}

// dumpDates returns the dump dates linked from the listing page at url.
func (l *Locator) dumpDates(ctx context.Context, url string) ([]time.Time, error) {
	body, err := l.lister.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	page, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	for _, m := range dateMatcher.FindAllSubmatch(page, -1) {
		date, err := time.Parse(DateLayout, string(m[1]))
		if err != nil {
			l.logger.Debug("ignoring malformed dump date", zap.String("url", url), zap.ByteString("date", m[1]))
			continue
		}
		dates = append(dates, date)
	}
	return dates, nil
}

// BuildURL returns the download URL of filetype in language's dump of date.
func (l *Locator) BuildURL(language, filetype string, date time.Time) (string, error) {
	dir, err := l.LanguageDir(language)
	if err != nil {
		return "", err
	}
	stamp := date.Format(DateLayout)

	if language == Entities {
		return l.resolve(dir + "/" + stamp + "/wikidata-" + stamp + "-all.json.gz"), nil
	}

	ext, err := l.catalog.Get(config.SectionFiletypes, filetype)
	if err != nil {
		return "", err
	}
	name, err := l.fileFormat.Substitute(fileValues(language, filetype, ext, date))
	if err != nil {
		return "", err
	}
	return l.resolve(dir + "/" + stamp + "/" + name), nil
}

// Tasks resolves the latest dump date of language and returns the sequence
// of its download tasks, one per enabled file type.
//
// If the date cannot be resolved the sequence is empty and Err reports why;
// the failure is logged here.
func (l *Locator) Tasks(ctx context.Context, language string) *Sequence {
	s := &Sequence{locator: l, language: language}

	date, err := l.LatestDumpDate(ctx, language)
	if err == nil && date.Equal(NoDump) {
		err = fmt.Errorf("%w for %s", ErrNoDump, language)
	}
	if err != nil {
		l.logger.Error("could not get dump date, skipping language",
			zap.String("language", language), zap.Error(err))
		s.err = err
		return s
	}

	files, err := l.catalog.EnabledFiles()
	if err != nil {
		s.err = err
		return s
	}

	l.logger.Info("latest dump",
		zap.String("language", language),
		zap.String("date", date.Format("Monday 02 January 2006")))

	s.date = date
	s.files = files
	return s
}

func (l *Locator) resolve(path string) string {
	return l.base.ResolveReference(&url.URL{Path: path}).String()
}

func fileValues(language, filename, filetype string, date time.Time) map[string]string {
	return map[string]string{
		"langcode": language,
		"date":     date.Format(DateLayout),
		"filename": filename,
		"filetype": filetype,
	}
}
