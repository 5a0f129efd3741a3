package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleConfig = `
[Configuration]
base_url = https://dumps.wikimedia.org/

[Templates]
language_dir_format = ${langcode}wiki
file_format = ${langcode}wiki-${date}-${filename}.${filetype}

[Files]
redirect = yes
pages-articles = true
langlinks = 1
categorylinks = no

[Filetypes]
redirect = sql.gz
pages-articles = xml.bz2
langlinks = sql.gz
categorylinks = sql.gz

[Languages]
zu = yes
zh = yes
tum = on
zh_yue = True
de = off
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wpdownloadrc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestEnabledFiles(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	files, err := cfg.EnabledFiles()
	if err != nil {
		t.Fatalf("EnabledFiles: %v", err)
	}

	want := []string{"langlinks", "pages-articles", "redirect"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("EnabledFiles() = %v, want %v", files, want)
	}
}

func TestEnabledLanguages(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	langs, err := cfg.EnabledLanguages()
	if err != nil {
		t.Fatalf("EnabledLanguages: %v", err)
	}

	want := []string{"tum", "zh", "zh_yue", "zu"}
	if !reflect.DeepEqual(langs, want) {
		t.Errorf("EnabledLanguages() = %v, want %v", langs, want)
	}
}

func TestGet(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ext, err := cfg.Get(SectionFiletypes, "pages-articles")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ext != "xml.bz2" {
		t.Errorf("expected xml.bz2, got %q", ext)
	}

	_, err = cfg.Get(SectionFiletypes, "no-such-file")
	if !errors.Is(err, ErrOption) {
		t.Errorf("expected ErrOption, got %v", err)
	}

	_, err = cfg.Get("NoSuchSection", "x")
	if !errors.Is(err, ErrOption) {
		t.Errorf("expected ErrOption, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"incomplete section header", "[Files\nredirect = yes\n"},
		{"missing delimiter", "[Files]\nredirect\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}

			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if cfgErr.File != path {
				t.Errorf("expected file %s, got %s", path, cfgErr.File)
			}
		})
	}
}

func TestValueError(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[Files]\nredirect = maybe\n[Languages]\nen = perhaps\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, err = cfg.EnabledFiles()
	var cfgErr *Error
	if !errors.As(err, &cfgErr) || !errors.Is(err, ErrValue) {
		t.Fatalf("expected ErrValue, got %v", err)
	}
	if cfgErr.Section != SectionFiles {
		t.Errorf("expected section %s, got %s", SectionFiles, cfgErr.Section)
	}

	_, err = cfg.EnabledLanguages()
	if !errors.Is(err, ErrValue) {
		t.Errorf("expected ErrValue, got %v", err)
	}
}

func TestTemplateMissing(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, err = cfg.StringTemplate("no_such_template")
	if !errors.Is(err, ErrTemplateMissing) {
		t.Fatalf("expected ErrTemplateMissing, got %v", err)
	}

	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if cfgErr.Template != "no_such_template" {
		t.Errorf("expected template name in error, got %q", cfgErr.Template)
	}
}

func TestTemplateSubstitute(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tmpl, err := cfg.StringTemplate("file_format")
	if err != nil {
		t.Fatalf("StringTemplate: %v", err)
	}

	got, err := tmpl.Substitute(map[string]string{
		"langcode": "en",
		"date":     "20230201",
		"filename": "pages-articles",
		"filetype": "xml.bz2",
	})
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	if got != "enwiki-20230201-pages-articles.xml.bz2" {
		t.Errorf("unexpected substitution: %q", got)
	}
}

func TestTemplateUnknownPlaceholder(t *testing.T) {
	tmpl := Template{Name: "language_dir_format", Text: "$langcodewiki"}

	_, err := tmpl.Substitute(map[string]string{"langcode": "en"})
	if !errors.Is(err, ErrTemplate) {
		t.Errorf("expected ErrTemplate, got %v", err)
	}
}

func TestTemplateEscapedDollar(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"$${langcode}-x", "${langcode}-x"},
		{"cost-$$-$langcode", "cost-$-en"},
		{"${langcode}$$", "en$"},
	}

	for _, tt := range tests {
		tmpl := Template{Name: "file_format", Text: tt.text}
		got, err := tmpl.Substitute(map[string]string{"langcode": "en"})
		if err != nil {
			t.Errorf("Substitute(%q): %v", tt.text, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Substitute(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
