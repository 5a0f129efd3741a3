package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/orenro/wp-download/internal/progress"
)

// EnvPrefix is the prefix of environment variables overriding options.
const EnvPrefix = "WPDOWNLOAD"

// Option keys, shared by command-line flags, environment variables and viper.
const (
	KeyTimeout         = "timeout"
	KeyRetries         = "retries"
	KeyForce           = "force"
	KeyResume          = "resume"
	KeyQuiet           = "quiet"
	KeyCustomDump      = "custom-dump"
	KeyLimitRate       = "limit-rate"
	KeyRetryBackoff    = "retry-backoff"
	KeyRetryMaxBackoff = "retry-max-backoff"
	KeyReport          = "report"
)

// Options are the operator options for a download run.
type Options struct {
	Timeout    time.Duration
	Retries    int
	Force      bool
	Resume     bool
	Quiet      bool
	CustomDump []string

	// LimitRate caps the transfer rate in bytes per second. Zero means
	// unlimited.
	LimitRate int64

	Retry RetryConfig

	// Report is an optional path to write the run summary to.
	Report string
}

// RetryConfig defines the wait between transfer attempts.
type RetryConfig struct {
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Default returns Options with sensible defaults.
func Default() Options {
	return Options{
		Timeout: 30 * time.Second,
		Retries: 3,
		Retry: RetryConfig{
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// NewViper returns a viper instance seeded with the defaults and reading
// WPDOWNLOAD_* environment variables (dashes become underscores).
func NewViper() *viper.Viper {
	d := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyTimeout, FormatTimeout(d.Timeout))
	v.SetDefault(KeyRetries, d.Retries)
	v.SetDefault(KeyForce, d.Force)
	v.SetDefault(KeyResume, d.Resume)
	v.SetDefault(KeyQuiet, d.Quiet)
	v.SetDefault(KeyCustomDump, []string{})
	v.SetDefault(KeyLimitRate, "")
	v.SetDefault(KeyRetryBackoff, d.Retry.Backoff)
	v.SetDefault(KeyRetryMaxBackoff, d.Retry.MaxBackoff)
	v.SetDefault(KeyReport, "")
	return v
}

// LoadOptions reads Options from v.
func LoadOptions(v *viper.Viper) (Options, error) {
	timeout, err := ParseTimeout(v.GetString(KeyTimeout))
	if err != nil {
		return Options{}, fmt.Errorf("parse %s: %w", KeyTimeout, err)
	}

	opts := Options{
		Timeout: timeout,
		Retries: v.GetInt(KeyRetries),
		Force:   v.GetBool(KeyForce),
		Resume:  v.GetBool(KeyResume),
		Quiet:   v.GetBool(KeyQuiet),
		Retry: RetryConfig{
			Backoff:    v.GetDuration(KeyRetryBackoff),
			MaxBackoff: v.GetDuration(KeyRetryMaxBackoff),
		},
		Report: v.GetString(KeyReport),
	}

	// Environment values arrive as one string; accept commas as separators.
	for _, item := range v.GetStringSlice(KeyCustomDump) {
		for _, pair := range strings.Split(item, ",") {
			if pair = strings.TrimSpace(pair); pair != "" {
				opts.CustomDump = append(opts.CustomDump, pair)
			}
		}
	}

	if s := v.GetString(KeyLimitRate); s != "" {
		n, err := progress.ParseBytes(s)
		if err != nil {
			return Options{}, fmt.Errorf("parse %s: %w", KeyLimitRate, err)
		}
		opts.LimitRate = n
	}

	return opts, opts.Validate()
}

// ParseTimeout parses a timeout given in seconds ("30", "2.5") or as a
// duration with a unit ("1m30s").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: want seconds or a duration like 1m30s", s)
	}
	return d, nil
}

// FormatTimeout formats d the way ParseTimeout reads it back.
func FormatTimeout(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// Validate validates the options.
func (o *Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if o.Retries <= 0 {
		return errors.New("config: retries must be positive")
	}
	if o.LimitRate < 0 {
		return errors.New("config: limit-rate must not be negative")
	}
	if o.Retry.Backoff < 0 || o.Retry.MaxBackoff < 0 {
		return errors.New("config: retry backoff must not be negative")
	}
	return nil
}
