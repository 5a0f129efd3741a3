package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Options configures a progress bar.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is the minimum time between redraws.
	// Default: 200ms
	UpdateInterval time.Duration

	// Width is the number of cells inside the brackets.
	// Default: 30
	Width int
}

// Bar draws the progress of a single file transfer on one terminal line.
//
// Bar is driven synchronously by the transfer loop: call Start once, Update
// after every block, and Finish when the transfer ends (successfully or not).
type Bar struct {
	opts  Options
	name  string
	total int64

	offset    int64
	current   int64
	startTime time.Time
	lastDraw  time.Time

	now func() time.Time
}

// NewBar creates a progress bar for name, expecting total bytes.
func NewBar(name string, total int64, opts Options) *Bar {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 200 * time.Millisecond
	}
	if opts.Width <= 0 {
		opts.Width = 30
	}

	return &Bar{
		opts:  opts,
		name:  name,
		total: total,
		now:   time.Now,
	}
}

// Start begins reporting. offset is the number of bytes already present
// locally when resuming; it counts towards the percentage but not the speed.
func (b *Bar) Start(offset int64) {
	b.startTime = b.now()
	b.offset = offset
	b.current = offset
	b.draw(b.startTime)
}

// Update sets the number of bytes transferred so far, including the offset.
func (b *Bar) Update(read int64) {
	b.current = read
	now := b.now()
	if now.Sub(b.lastDraw) < b.opts.UpdateInterval {
		return
	}
	b.draw(now)
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish() {
	b.draw(b.now())
	fmt.Fprintln(b.opts.Output)
}

func (b *Bar) draw(now time.Time) {
	b.lastDraw = now

	var fraction float64
	if b.total > 0 {
		fraction = float64(b.current) / float64(b.total)
		if fraction > 1 {
			fraction = 1
		}
	}

	filled := int(fraction * float64(b.opts.Width))
	bar := strings.Repeat("*", filled) + strings.Repeat(" ", b.opts.Width-filled)

	elapsed := now.Sub(b.startTime).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(b.current-b.offset) / elapsed
	}

	eta := "--"
	if speed > 0 && b.total > b.current {
		eta = formatDuration(time.Duration(float64(b.total-b.current) / speed * float64(time.Second)))
	} else if b.total > 0 && b.current >= b.total {
		eta = formatDuration(now.Sub(b.startTime))
	}

	fmt.Fprintf(b.opts.Output, "\r%s [%s] %5.1f%% %s / %s | %s/s | ETA: %s    ",
		b.name,
		bar,
		fraction*100,
		formatBytes(b.current),
		formatBytes(b.total),
		formatBytes(int64(speed)),
		eta,
	)
}

// formatBytes formats bytes as a human-readable string using binary units.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}

	units := []string{"KiB", "MiB", "GiB", "TiB"}
	value := float64(b) / unit
	i := 0
	for value >= unit && i < len(units)-1 {
		value /= unit
		i++
	}

	if value >= 100 {
		return fmt.Sprintf("%.0f %s", value, units[i])
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

// ParseBytes parses a human-readable byte string (e.g., "256MiB", "1MB").
// Binary suffixes (KiB, MiB, ...) are powers of 1024; SI suffixes (KB, MB,
// ...) are powers of 1000.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	suffixes := []struct {
		suffix     string
		multiplier float64
	}{
		{"TiB", 1 << 40},
		{"GiB", 1 << 30},
		{"MiB", 1 << 20},
		{"KiB", 1 << 10},
		{"TB", 1e12},
		{"GB", 1e9},
		{"MB", 1e6},
		{"KB", 1e3},
		{"B", 1},
	}

	multiplier := 1.0
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.suffix) {
			multiplier = sfx.multiplier
			s = strings.TrimSpace(strings.TrimSuffix(s, sfx.suffix))
			break
		}
	}

	var value float64
	if _, err := fmt.Sscanf(s, "%f", &value); err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative byte string: %s", s)
	}

	return int64(value * multiplier), nil
}
