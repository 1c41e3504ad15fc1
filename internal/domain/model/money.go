package model

import (
	"fmt"
	"strconv"
	"strings"

	"telegram-course-store/internal/domain"
)

// Amounts are carried internally as int64 minor units to avoid float
// arithmetic on money; the provider wire format is a two-decimal string.

// FormatAmount renders minor units as the provider decimal string
// (1999 -> "19.99").
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// ParseAmount parses a provider decimal string into minor units
// ("19.99" -> 1999). At most two fractional digits are accepted.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", domain.ErrInvalidArgument)
	}
	whole, frac, _ := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", domain.ErrInvalidArgument, s)
	}
	var cents int64
	switch len(frac) {
	case 0:
	case 1:
		frac += "0"
		fallthrough
	case 2:
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("%w: amount %q", domain.ErrInvalidArgument, s)
		}
	default:
		return 0, fmt.Errorf("%w: amount %q", domain.ErrInvalidArgument, s)
	}
	if units < 0 || strings.HasPrefix(whole, "-") {
		return 0, fmt.Errorf("%w: negative amount %q", domain.ErrInvalidArgument, s)
	}
	return units*100 + cents, nil
}
