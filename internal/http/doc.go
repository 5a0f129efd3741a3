// Package http provides the HTTP client used to discover and fetch dumps.
//
// This package handles:
//   - HEAD requests to probe a dump file's size
//   - GET requests for directory-listing pages
//   - Byte-range GET requests to resume interrupted transfers
//   - Retry with exponential backoff for metadata requests
//   - Per-read idle timeouts, so a stalled transfer fails instead of hanging
//
// # Usage
//
//	client := http.NewClient(http.Options{
//	    Timeout:       30 * time.Second,
//	    RetryAttempts: 3,
//	})
//
//	// Probe file size
//	info, err := client.Head(ctx, url)
//
//	// Resume from byte offset
//	resp, err := client.GetFrom(ctx, url, offset)
//	defer resp.Body.Close()
package http
