package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/qepting91/ticker-pulse/internal/domain"
)

// parseValue reads the leading integer of raw the way a number input is read:
// surrounding space is ignored, an optional sign and digits are consumed and
// anything after them is dropped. Empty or non-numeric input is 0.
func parseValue(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// only range errors remain here
		if s[0] == '-' {
			return math.MinInt
		}
		return math.MaxInt
	}
	return n
}

// Clamp parses raw and forces it into the bounds of unit
func Clamp(raw string, unit domain.TimeUnit) int {
	return clampInt(parseValue(raw), unit)
}

func clampInt(v int, unit domain.TimeUnit) int {
	b := Bounds(unit)
	return max(b.Min, min(v, b.Max))
}

// IsValid reports whether raw is non-empty and already inside the bounds of unit.
// It gates the apply action; typing is never blocked.
func IsValid(raw string, unit domain.TimeUnit) bool {
	return Validate(raw, unit) == nil
}

// Validate is IsValid with a reason
func Validate(raw string, unit domain.TimeUnit) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("empty time value: %w", domain.ErrInvalidTimeRange)
	}
	b := Bounds(unit)
	if v := parseValue(raw); v < b.Min || v > b.Max {
		return fmt.Errorf("%q outside [%d, %d] %s: %w", raw, b.Min, b.Max, unit, domain.ErrInvalidTimeRange)
	}
	return nil
}
