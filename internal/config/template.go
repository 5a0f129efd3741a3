package config

import (
	"fmt"
	"os"
)

// Template is a string with $name or ${name} placeholders.
type Template struct {
	Name string
	Text string

	file string
}

// Substitute replaces every placeholder with its value in values; "$$" is
// an escaped "$". A placeholder with no value is an ErrTemplate error.
func (t Template) Substitute(values map[string]string) (string, error) {
	var missing string
	out := os.Expand(t.Text, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, ok := values[name]
		if !ok && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", &Error{
			Kind:     ErrTemplate,
			File:     t.file,
			Section:  SectionTemplates,
			Template: t.Name,
			Err:      fmt.Errorf("unknown placeholder %q", missing),
		}
	}
	return out, nil
}
