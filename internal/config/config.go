package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/ini.v1"
)

// Section names of the catalogue file.
const (
	SectionConfiguration = "Configuration"
	SectionTemplates     = "Templates"
	SectionFiles         = "Files"
	SectionFiletypes     = "Filetypes"
	SectionLanguages     = "Languages"
)

// Configuration is a parsed dump catalogue.
type Configuration struct {
	path string
	file *ini.File
}

// Load reads the catalogue file at path.
//
// A missing file is reported with an error wrapping fs.ErrNotExist, so callers
// can tell it apart from a file that exists but fails to parse (ErrParse).
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*Configuration, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys: true,
	}, data)
	if err != nil {
		return nil, &Error{Kind: ErrParse, File: path, Err: err}
	}
	return &Configuration{path: path, file: f}, nil
}

// Path returns the path the catalogue was read from.
func (c *Configuration) Path() string {
	return c.path
}

// EnabledFiles returns the names of all enabled file types, sorted.
func (c *Configuration) EnabledFiles() ([]string, error) {
	return c.enabledOptions(SectionFiles)
}

// EnabledLanguages returns the codes of all enabled languages, sorted.
func (c *Configuration) EnabledLanguages() ([]string, error) {
	return c.enabledOptions(SectionLanguages)
}

// enabledOptions returns the keys of section whose value is a true boolean.
func (c *Configuration) enabledOptions(section string) ([]string, error) {
	sec, err := c.file.GetSection(section)
	if err != nil {
		return nil, &Error{Kind: ErrOption, File: c.path, Section: section, Err: err}
	}

	var enabled []string
	for _, key := range sec.Keys() {
		on, err := key.Bool()
		if err != nil {
			return nil, &Error{
				Kind:    ErrValue,
				File:    c.path,
				Section: section,
				Err:     fmt.Errorf("option %q: %w", key.Name(), err),
			}
		}
		if on {
			enabled = append(enabled, key.Name())
		}
	}
	slices.Sort(enabled)
	return enabled, nil
}

// Get returns the value of key in section.
func (c *Configuration) Get(section, key string) (string, error) {
	sec, err := c.file.GetSection(section)
	if err != nil {
		return "", &Error{Kind: ErrOption, File: c.path, Section: section, Err: err}
	}
	k, err := sec.GetKey(key)
	if err != nil {
		return "", &Error{Kind: ErrOption, File: c.path, Section: section, Err: err}
	}
	return k.String(), nil
}

// StringTemplate returns the template called name from the Templates section.
func (c *Configuration) StringTemplate(name string) (Template, error) {
	text, err := c.Get(SectionTemplates, name)
	if err != nil {
		return Template{}, &Error{
			Kind:     ErrTemplateMissing,
			File:     c.path,
			Section:  SectionTemplates,
			Template: name,
			Err:      err,
		}
	}
	return Template{Name: name, Text: text, file: c.path}, nil
}
