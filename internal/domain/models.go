package domain

import (
	"context"
	"time"
)

// Subreddit is the data-source filter value chosen in the live view
type Subreddit string

const (
	SubredditAll            Subreddit = "all"
	SubredditWallStreetBets Subreddit = "wallstreetbets"
	SubredditStocks         Subreddit = "stocks"
	SubredditValueInvesting Subreddit = "valueinvesting"
)

// TimeUnit is the unit of the time window filter
type TimeUnit string

const (
	Minutes TimeUnit = "minutes"
	Hours   TimeUnit = "hours"
	Days    TimeUnit = "days"
)

// PendingFilter holds in-progress edits. TimeValue is the raw text the user
// typed and may be empty or out of range until apply.
type PendingFilter struct {
	Subreddit Subreddit `json:"subreddit"`
	TimeValue string    `json:"time_value"`
	TimeUnit  TimeUnit  `json:"time_unit"`
}

// AppliedFilter is the filter last committed by apply; always within bounds.
type AppliedFilter struct {
	Subreddit Subreddit `json:"subreddit"`
	TimeValue int       `json:"time_value"`
	TimeUnit  TimeUnit  `json:"time_unit"`
}

// DefaultAppliedFilter is the filter the live view starts with
func DefaultAppliedFilter() AppliedFilter {
	return AppliedFilter{Subreddit: SubredditAll, TimeValue: 3, TimeUnit: Days}
}

// QueryParams are the backend query parameters for the ranking API
type QueryParams struct {
	Timeframe string `json:"timeframe"`
	Subreddit string `json:"subreddit"`
}

// TickerMention is one ranked row
type TickerMention struct {
	Symbol       string `json:"symbol"`
	MentionCount int    `json:"mention_count"`
}

// RankingResult is the outcome of one successful fetch. Items keep backend order.
type RankingResult struct {
	Items         []TickerMention `json:"items"`
	TotalMentions int             `json:"total_mentions"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// EmptyResult is what the live view shows after any failed fetch
func EmptyResult() RankingResult {
	return RankingResult{Items: []TickerMention{}}
}

// Clone returns a copy that shares no backing array with r
func (r RankingResult) Clone() RankingResult {
	items := make([]TickerMention, len(r.Items))
	copy(items, r.Items)
	r.Items = items
	return r
}

// EngineState is the read-only view of the live engine
type EngineState struct {
	Pending       PendingFilter `json:"pending"`
	Applied       AppliedFilter `json:"applied"`
	ApplyEnabled  bool          `json:"apply_enabled"`
	Result        RankingResult `json:"result"`
	IsLoading     bool          `json:"is_loading"`
	LastError     ErrorKind     `json:"last_error,omitempty"`
	LastErrorText string        `json:"last_error_text,omitempty"`
	LastUpdatedAt time.Time     `json:"last_updated_at"`
}

// Snapshot is a published ranking together with the filter that produced it
type Snapshot struct {
	Seq           uint64          `json:"seq"`
	Filter        AppliedFilter   `json:"filter"`
	Query         QueryParams     `json:"query"`
	Items         []TickerMention `json:"items"`
	TotalMentions int             `json:"total_mentions"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// BatchInfo describes the scrape batch behind the home snapshot
type BatchInfo struct {
	Start string `json:"batch_start"`
	End   string `json:"batch_end"`
}

// HomeSnapshot is the latest-batch ranking shown on the home page
type HomeSnapshot struct {
	Result RankingResult `json:"result"`
	Batch  *BatchInfo    `json:"batch,omitempty"`
}

// StockDetail is the per-symbol analysis record
type StockDetail struct {
	Symbol           string          `json:"symbol"`
	TotalMentions    int             `json:"total_mentions"`
	PositiveMentions *int            `json:"positive_mentions,omitempty"`
	NegativeMentions *int            `json:"negative_mentions,omitempty"`
	AnalysisDate     string          `json:"analysis_date,omitempty"`
	Analysis         string          `json:"analysis"`
	History          []TickerMention `json:"history"`
}

// RankingSource performs the network round trip for one query
type RankingSource interface {
	FetchRanking(ctx context.Context, params QueryParams) (RankingResult, error)
}

// SnapshotSource serves the sibling home and stock-detail pages
type SnapshotSource interface {
	FetchHome(ctx context.Context) (HomeSnapshot, error)
	FetchStock(ctx context.Context, symbol string) (StockDetail, error)
}

// Collector is the full backend client
type Collector interface {
	RankingSource
	SnapshotSource
}
