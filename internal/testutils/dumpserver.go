// Package testutils provides shared test infrastructure: an HTTP dump server
// with range request support and fault injection, and (behind the
// integration build tag) a MinIO container for bucket tests.
package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// GenerateTestData generates deterministic test data of the given size.
func GenerateTestData(t *testing.T, size int64) []byte {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// Request records a request received by a DumpServer.
type Request struct {
	Method string
	Path   string
	Range  string
}

// DumpServer imitates a dump server: directory-listing pages plus files
// served with range request support. Faults can be injected per file.
type DumpServer struct {
	*httptest.Server

	mu          sync.Mutex
	listings    map[string]string
	files       map[string][]byte
	failures    map[string]failure
	overruns    map[string][]byte
	ignoreRange bool
	noRanges    bool
	requests    []Request
}

type failure struct {
	remaining  int
	afterBytes int
}

// StartDumpServer starts a DumpServer; it is closed when the test ends.
func StartDumpServer(t *testing.T) *DumpServer {
	t.Helper()

	s := &DumpServer{
		listings: make(map[string]string),
		files:    make(map[string][]byte),
		failures: make(map[string]failure),
		overruns: make(map[string][]byte),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// AddListing serves a listing page at dir (e.g. "/enwiki/") linking to a
// subdirectory per date.
func (s *DumpServer) AddListing(dir string, dates ...string) {
	var b strings.Builder
	b.WriteString("<html><head><title>Index of " + dir + "</title></head><body><pre>\n")
	b.WriteString(`<a href="../">../</a>` + "\n")
	for _, d := range dates {
		fmt.Fprintf(&b, `<a href="%s/">%s/</a>                                01-Feb-2023 12:00    -`+"\n", d, d)
	}
	b.WriteString(`<a href="latest/">latest/</a>` + "\n</pre></body></html>\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[dir] = b.String()
}

// AddFile serves data at path.
func (s *DumpServer) AddFile(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
}

// FailNext makes the next n GET requests for path send afterBytes bytes of
// the body and then drop the connection.
func (s *DumpServer) FailNext(path string, n, afterBytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{remaining: n, afterBytes: afterBytes}
}

// Overrun makes GET requests for path append extra to the body, while HEAD
// keeps reporting the original size.
func (s *DumpServer) Overrun(path string, extra []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overruns[path] = extra
}

// IgnoreRange makes the server answer every GET with the full body.
func (s *DumpServer) IgnoreRange(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignoreRange = ignore
}

// DisableRanges makes the server stop advertising range support and answer
// every GET with the full body.
func (s *DumpServer) DisableRanges() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noRanges = true
	s.ignoreRange = true
}

// Requests returns the requests received so far.
func (s *DumpServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns how many requests with method were made for path.
func (s *DumpServer) RequestCount(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *DumpServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Range: r.Header.Get("Range")})
	listing, isListing := s.listings[r.URL.Path]
	data, isFile := s.files[r.URL.Path]
	fail := s.failures[r.URL.Path]
	if r.Method == http.MethodGet && fail.remaining > 0 {
		s.failures[r.URL.Path] = failure{remaining: fail.remaining - 1, afterBytes: fail.afterBytes}
	}
	extra := s.overruns[r.URL.Path]
	ignoreRange := s.ignoreRange
	noRanges := s.noRanges
	s.mu.Unlock()

	if isListing {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(listing))
		return
	}
	if !isFile {
		http.NotFound(w, r)
		return
	}

	size := int64(len(data))

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		if !noRanges {
			w.Header().Set("Accept-Ranges", "bytes")
		}
		return
	}

	start := int64(0)
	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" && !ignoreRange {
		// Parse range header: bytes=start- or bytes=start-end
		byteRange := strings.TrimPrefix(rangeHeader, "bytes=")
		startStr, _, _ := strings.Cut(byteRange, "-")
		start, _ = strconv.ParseInt(startStr, 10, 64)
	}
	if start > 0 && start >= size {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	body := append(append([]byte(nil), data[start:]...), extra...)

	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if start > 0 {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, size-1, size))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if fail.remaining > 0 {
		n := min(fail.afterBytes, len(body))
		w.Write(body[:n])
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}

	w.Write(body)
}
