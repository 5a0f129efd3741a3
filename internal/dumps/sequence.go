package dumps

import (
	"io"
	"path"
	"path/filepath"
	"time"
)

// Task is a single dump file to download.
type Task struct {
	Language string
	FileType string
	Date     time.Time
	URL      string
}

// FileName returns the last path segment of the task's URL.
func (t Task) FileName() string {
	return path.Base(t.URL)
}

// Dir returns the local directory of the task below base:
// base/language/YYYYMMDD.
func (t Task) Dir(base string) string {
	return filepath.Join(base, t.Language, t.Date.Format(DateLayout))
}

// LocalPath returns the local destination of the task below base.
func (t Task) LocalPath(base string) string {
	return filepath.Join(t.Dir(base), t.FileName())
}

// Sequence yields the download tasks of one language in enabled-file order.
// It is consumed once; there is no way to rewind it.
type Sequence struct {
	locator  *Locator
	language string
	date     time.Time
	files    []string
	next     int
	err      error
}

// Language returns the language code of the sequence.
func (s *Sequence) Language() string {
	return s.language
}

// Date returns the resolved dump date. It is the zero time if resolution
// failed.
func (s *Sequence) Date() time.Time {
	return s.date
}

// Dir returns the local dump directory below base.
func (s *Sequence) Dir(base string) string {
	return filepath.Join(base, s.language, s.date.Format(DateLayout))
}

// Err returns the reason the sequence is empty, if date resolution failed.
func (s *Sequence) Err() error {
	return s.err
}

// Next returns the next task. It returns io.EOF when the sequence is
// exhausted, and immediately if date resolution failed.
func (s *Sequence) Next() (Task, error) {
	if s.err != nil || s.next >= len(s.files) {
		return Task{}, io.EOF
	}

	filetype := s.files[s.next]
	s.next++

	u, err := s.locator.BuildURL(s.language, filetype, s.date)
	if err != nil {
		s.err = err
		s.next = len(s.files)
		return Task{}, err
	}

	return Task{
		Language: s.language,
		FileType: filetype,
		Date:     s.date,
		URL:      u,
	}, nil
}
