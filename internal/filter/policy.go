// Package filter holds the live view's filter rules: time-unit bounds,
// validation of typed values, query derivation and the pending/applied
// filter state.
package filter

import (
	"fmt"

	"github.com/qepting91/ticker-pulse/internal/domain"
)

// Bound is the inclusive range a time value must fall in
type Bound struct {
	Min int
	Max int
}

// Unit describes a selectable time unit
type Unit struct {
	Value domain.TimeUnit
	Label string
	Max   int
}

// Units lists the time units in display order
var Units = []Unit{
	{Value: domain.Minutes, Label: "Minutes", Max: 10080},
	{Value: domain.Hours, Label: "Hours", Max: 168},
	{Value: domain.Days, Label: "Days", Max: 7},
}

// Bounds returns the valid range for unit. Unknown units get the days bound.
func Bounds(unit domain.TimeUnit) Bound {
	for _, u := range Units {
		if u.Value == unit {
			return Bound{Min: 1, Max: u.Max}
		}
	}
	return Bound{Min: 1, Max: 7}
}

// Label renders "1 day" / "3 days"
func Label(unit domain.TimeUnit, value int) string {
	name := string(unit)
	if value == 1 && len(name) > 0 {
		name = name[:len(name)-1]
	}
	return fmt.Sprintf("%d %s", value, name)
}

// SubredditOption is one entry of the subreddit selector
type SubredditOption struct {
	Value   domain.Subreddit
	Label   string
	Display string
}

// Subreddits lists the selectable subreddits in display order
var Subreddits = []SubredditOption{
	{Value: domain.SubredditAll, Label: "All", Display: "All Subreddits"},
	{Value: domain.SubredditWallStreetBets, Label: "WSB", Display: "r/wallstreetbets"},
	{Value: domain.SubredditStocks, Label: "Stocks", Display: "r/stocks"},
	{Value: domain.SubredditValueInvesting, Label: "Value", Display: "r/valueInvesting"},
}

// DisplayName returns the human name of sub, "All Subreddits" when unknown
func DisplayName(sub domain.Subreddit) string {
	for _, s := range Subreddits {
		if s.Value == sub {
			return s.Display
		}
	}
	return "All Subreddits"
}

// Title is the heading of the live chart for f
func Title(f domain.AppliedFilter) string {
	return fmt.Sprintf("Top 10 from %s - Last %s", DisplayName(f.Subreddit), Label(f.TimeUnit, f.TimeValue))
}
