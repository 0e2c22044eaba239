package filter

import (
	"fmt"
	"strconv"

	"github.com/qepting91/ticker-pulse/internal/domain"
)

var unitSuffix = map[domain.TimeUnit]string{
	domain.Minutes: "m",
	domain.Hours:   "h",
	domain.Days:    "d",
}

// slugs are case-sensitive on the backend
var subredditSlug = map[domain.Subreddit]string{
	domain.SubredditAll:            "all",
	domain.SubredditWallStreetBets: "wallstreetbets",
	domain.SubredditStocks:         "stocks",
	domain.SubredditValueInvesting: "ValueInvesting",
}

// Timeframe encodes value and unit as a backend token like "5d" or "90m"
func Timeframe(value int, unit domain.TimeUnit) (string, error) {
	suffix, ok := unitSuffix[unit]
	if !ok {
		return "", fmt.Errorf("no timeframe for %q: %w", unit, domain.ErrUnknownTimeUnit)
	}
	return strconv.Itoa(value) + suffix, nil
}

// Slug maps sub to the backend subreddit name; unknown values fall back to "all"
func Slug(sub domain.Subreddit) string {
	if s, ok := subredditSlug[sub]; ok {
		return s
	}
	return "all"
}

// ToQueryParams derives the ranking API parameters for f
func ToQueryParams(f domain.AppliedFilter) (domain.QueryParams, error) {
	tf, err := Timeframe(f.TimeValue, f.TimeUnit)
	if err != nil {
		return domain.QueryParams{}, err
	}
	return domain.QueryParams{Timeframe: tf, Subreddit: Slug(f.Subreddit)}, nil
}
