package downloader

import (
	"errors"
	"fmt"
)

// ErrDownload is matched by every per-file download failure: HTTP status
// errors, overruns, incomplete transfers and exhausted retries.
var ErrDownload = errors.New("downloader: download failed")

// OverrunError is returned when a server sends more data than the probed
// content length, typically because it ignored the range request.
type OverrunError struct {
	URL      string
	Expected int64
	Received int64
}

func (e *OverrunError) Error() string {
	return fmt.Sprintf("received data exceeds advertised size for %s: %d > %d bytes",
		e.URL, e.Received, e.Expected)
}

// Is reports whether target is ErrDownload.
func (e *OverrunError) Is(target error) bool {
	return target == ErrDownload
}

// RetryLimitError is returned when every transfer attempt for a file failed.
// The partial file is left in place for a later resume.
//
// Use errors.As to extract this error and inspect Err for the last failure.
type RetryLimitError struct {
	URL      string
	Attempts int   // Number of attempts made
	Err      error // Error of the last attempt
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("could not retrieve %s: retry limit exceeded after %d attempts: %v",
		e.URL, e.Attempts, e.Err)
}

// Is reports whether target is ErrDownload.
func (e *RetryLimitError) Is(target error) bool {
	return target == ErrDownload
}

func (e *RetryLimitError) Unwrap() error {
	return e.Err
}
