package config

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrParse           = errors.New("config: parse error")
	ErrValue           = errors.New("config: unexpected value")
	ErrOption          = errors.New("config: missing option")
	ErrTemplate        = errors.New("config: invalid template")
	ErrTemplateMissing = errors.New("config: missing template")
)

// Error describes a failure reading the catalogue file.
type Error struct {
	Kind     error  // One of the Err* kinds
	File     string // Path of the catalogue file
	Section  string // Section name, if any
	Template string // Template name, if any
	Err      error  // Underlying cause
}

func (e *Error) Error() string {
	switch {
	case e.Template != "":
		return fmt.Sprintf("%v: template %q in %s: %v", e.Kind, e.Template, e.File, e.Err)
	case e.Section != "":
		return fmt.Sprintf("%v: section [%s] of %s: %v", e.Kind, e.Section, e.File, e.Err)
	default:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.File, e.Err)
	}
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}
