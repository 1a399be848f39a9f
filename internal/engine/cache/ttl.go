package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultTTL applies when no TTL is configured.
	DefaultTTL = time.Hour

	// MinTTL and MaxTTL bound configurable TTLs.
	MinTTL = time.Minute
	MaxTTL = 7 * 24 * time.Hour

	// EnvTTL overrides the TTL, as seconds or a Go duration.
	EnvTTL = "GREENLEDGER_CACHE_TTL"

	// EnvEnabled disables the cache when set to a false value.
	EnvEnabled = "GREENLEDGER_CACHE_ENABLED"

	// EnvDir overrides the cache directory.
	EnvDir = "GREENLEDGER_CACHE_DIR"
)

// ErrInvalidTTL indicates a TTL outside [MinTTL, MaxTTL].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %s and %s", MinTTL, MaxTTL)

// ParseTTL accepts integer seconds ("3600") or a duration ("90m").
func ParseTTL(s string) (time.Duration, error) {
	var d time.Duration
	if secs, err := strconv.Atoi(s); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return 0, fmt.Errorf("invalid TTL %q: %w", s, perr)
		}
		d = parsed
	}
	if d < MinTTL || d > MaxTTL {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}
	return d, nil
}

// TTLFromEnv returns the TTL from EnvTTL, or fallback when unset or invalid.
func TTLFromEnv(fallback time.Duration) time.Duration {
	v := os.Getenv(EnvTTL)
	if v == "" {
		return fallback
	}
	d, err := ParseTTL(v)
	if err != nil {
		return fallback
	}
	return d
}

// EnabledFromEnv returns EnvEnabled parsed as a bool, or fallback.
func EnabledFromEnv(fallback bool) bool {
	v := os.Getenv(EnvEnabled)
	if v == "" {
		return fallback
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return enabled
}

// FormatDuration renders d compactly: "45s", "30m", "1h30m", "2d4h".
func FormatDuration(d time.Duration) string {
	const hoursPerDay = 24
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	case d < hoursPerDay*time.Hour:
		h, m := int(d.Hours()), int(d.Minutes())%60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		days, h := int(d.Hours())/hoursPerDay, int(d.Hours())%hoursPerDay
		if h == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd%dh", days, h)
	}
}
