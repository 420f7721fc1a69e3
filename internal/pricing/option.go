package pricing

import (
	"fmt"
	"strings"
	"time"
)

// OptionType selects the payoff.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call", "c", "put" or "p" in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: option_type %q must be call or put", ErrInvalidParameter, s)
}

const daysPerYear = 365.0

// YearsToExpiry converts a duration to an ACT/365 year fraction.
// Negative durations stay negative so validation can reject them.
func YearsToExpiry(d time.Duration) float64 {
	return d.Hours() / 24 / daysPerYear
}
