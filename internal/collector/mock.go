package collector

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/qepting91/ticker-pulse/internal/domain"
)

var mockTickers = []string{"GME", "AMC", "TSLA", "NVDA", "PLTR", "AAPL", "SPY", "AMD", "MSFT", "BRK.B", "SOFI", "COIN"}

// MockClient implements domain.Collector with synthetic rankings
type MockClient struct {
	Latency time.Duration
}

func NewMockClient() *MockClient {
	return &MockClient{Latency: 500 * time.Millisecond}
}

func (mc *MockClient) wait(ctx context.Context) error {
	if mc.Latency <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mc.Latency):
		return nil
	}
}

func randomRanking(n, scale int) ([]domain.TickerMention, int) {
	picks := rand.Perm(len(mockTickers))[:n]
	items := make([]domain.TickerMention, 0, n)
	total := 0
	for _, i := range picks {
		m := rand.Intn(scale) + 1
		items = append(items, domain.TickerMention{Symbol: mockTickers[i], MentionCount: m})
		total += m
	}
	sort.Slice(items, func(a, b int) bool { return items[a].MentionCount > items[b].MentionCount })
	return items, total
}

func (mc *MockClient) FetchRanking(ctx context.Context, params domain.QueryParams) (domain.RankingResult, error) {
	if err := mc.wait(ctx); err != nil {
		return domain.RankingResult{}, err
	}
	// bigger windows simulate more chatter
	scale := 50
	switch {
	case strings.HasSuffix(params.Timeframe, "d"):
		scale = 500
	case strings.HasSuffix(params.Timeframe, "h"):
		scale = 150
	}
	items, total := randomRanking(10, scale)
	return domain.RankingResult{Items: items, TotalMentions: total, FetchedAt: time.Now()}, nil
}

func (mc *MockClient) FetchHome(ctx context.Context) (domain.HomeSnapshot, error) {
	if err := mc.wait(ctx); err != nil {
		return domain.HomeSnapshot{}, err
	}
	now := time.Now()
	items, total := randomRanking(10, 300)
	return domain.HomeSnapshot{
		Result: domain.RankingResult{Items: items, TotalMentions: total, FetchedAt: now},
		Batch:  &domain.BatchInfo{Start: now.Add(-time.Hour).Format(time.RFC3339), End: now.Format(time.RFC3339)},
	}, nil
}

func (mc *MockClient) FetchStock(ctx context.Context, symbol string) (domain.StockDetail, error) {
	if err := mc.wait(ctx); err != nil {
		return domain.StockDetail{}, err
	}
	now := time.Now()
	detail := domain.StockDetail{
		Symbol:       strings.ToUpper(symbol),
		AnalysisDate: now.Format(time.RFC3339),
		Analysis:     "Simulated analysis for " + strings.ToUpper(symbol) + ".",
	}
	for d := 6; d >= 0; d-- {
		m := rand.Intn(200)
		detail.History = append(detail.History, domain.TickerMention{Symbol: now.AddDate(0, 0, -d).Format("Jan 2"), MentionCount: m})
		detail.TotalMentions += m
	}
	return detail, nil
}
