package collector

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/qepting91/ticker-pulse/internal/domain"
)

type mentionJSON struct {
	Ticker   string `json:"ticker"`
	Mentions int    `json:"mentions"`
}

// rankingPayload is the body of /api/top-10-filtered
type rankingPayload struct {
	Status        int            `json:"status"`
	Data          *[]mentionJSON `json:"data"`
	TotalMentions *int           `json:"total_mentions"`
}

// homePayload is the body of /api/home-data
type homePayload struct {
	Data          *[]mentionJSON `json:"data"`
	TotalMentions *int           `json:"total_mentions"`
	BatchInfo     *struct {
		BatchStart string `json:"batch_start"`
		BatchEnd   string `json:"batch_end"`
	} `json:"batch_info"`
}

// stockPayload is the body of /api/stock/{symbol}
type stockPayload struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    *struct {
		Symbol             string `json:"symbol"`
		TotalMentions      int    `json:"total_mentions"`
		PositiveMentions   *int   `json:"positive_mentions"`
		NegativeMentions   *int   `json:"negative_mentions"`
		AnalysisDate       string `json:"analysis_date"`
		AIAnalysis         string `json:"ai_analysis"`
		HistoricalMentions []struct {
			Name     string `json:"name"`
			Mentions int    `json:"mentions"`
		} `json:"historical_mentions"`
	} `json:"data"`
}

// unavailableAnalysis is shown when a stock record cannot be loaded
const unavailableAnalysis = "Unable to load analysis. Please try again later."

func toMentions(data []mentionJSON) ([]domain.TickerMention, error) {
	items := make([]domain.TickerMention, 0, len(data))
	for i, d := range data {
		if d.Mentions < 0 {
			return nil, fmt.Errorf("item %d (%s) has negative mentions: %w", i, d.Ticker, domain.ErrMalformedResponse)
		}
		items = append(items, domain.TickerMention{Symbol: d.Ticker, MentionCount: d.Mentions})
	}
	return items, nil
}

func totalOrZero(p *int) int {
	if p == nil || *p < 0 {
		return 0
	}
	return *p
}

// FromPayload turns a ranking API body into a RankingResult. It returns
// either a well-formed result or an error, never both.
func FromPayload(body []byte, fetchedAt time.Time) (domain.RankingResult, error) {
	var p rankingPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.RankingResult{}, fmt.Errorf("decode ranking: %v: %w", err, domain.ErrMalformedResponse)
	}
	if p.Status != 200 {
		return domain.RankingResult{}, fmt.Errorf("ranking payload status %d: %w", p.Status, domain.ErrFetchFailed)
	}
	if p.Data == nil {
		return domain.RankingResult{}, fmt.Errorf("ranking payload without data: %w", domain.ErrMalformedResponse)
	}
	items, err := toMentions(*p.Data)
	if err != nil {
		return domain.RankingResult{}, err
	}
	return domain.RankingResult{
		Items:         items,
		TotalMentions: totalOrZero(p.TotalMentions),
		FetchedAt:     fetchedAt,
	}, nil
}

// FromHomePayload turns the home snapshot body into a HomeSnapshot
func FromHomePayload(body []byte, fetchedAt time.Time) (domain.HomeSnapshot, error) {
	var p homePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.HomeSnapshot{}, fmt.Errorf("decode home: %v: %w", err, domain.ErrMalformedResponse)
	}
	if p.Data == nil {
		return domain.HomeSnapshot{}, fmt.Errorf("home payload without data: %w", domain.ErrMalformedResponse)
	}
	items, err := toMentions(*p.Data)
	if err != nil {
		return domain.HomeSnapshot{}, err
	}
	snap := domain.HomeSnapshot{
		Result: domain.RankingResult{Items: items, TotalMentions: totalOrZero(p.TotalMentions), FetchedAt: fetchedAt},
	}
	if p.BatchInfo != nil {
		snap.Batch = &domain.BatchInfo{Start: p.BatchInfo.BatchStart, End: p.BatchInfo.BatchEnd}
	}
	return snap, nil
}

// FromStockPayload turns the stock detail body into a StockDetail
func FromStockPayload(body []byte) (domain.StockDetail, error) {
	var p stockPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.StockDetail{}, fmt.Errorf("decode stock: %v: %w", err, domain.ErrMalformedResponse)
	}
	if p.Status != 200 {
		msg := p.Message
		if msg == "" {
			msg = "failed to fetch stock data"
		}
		return domain.StockDetail{}, fmt.Errorf("stock payload status %d: %s: %w", p.Status, msg, domain.ErrFetchFailed)
	}
	if p.Data == nil {
		return domain.StockDetail{}, fmt.Errorf("stock payload without data: %w", domain.ErrMalformedResponse)
	}
	d := p.Data
	out := domain.StockDetail{
		Symbol:           d.Symbol,
		TotalMentions:    d.TotalMentions,
		PositiveMentions: d.PositiveMentions,
		NegativeMentions: d.NegativeMentions,
		AnalysisDate:     d.AnalysisDate,
		Analysis:         d.AIAnalysis,
		History:          make([]domain.TickerMention, 0, len(d.HistoricalMentions)),
	}
	if out.Analysis == "" {
		out.Analysis = "No analysis available"
	}
	for _, h := range d.HistoricalMentions {
		out.History = append(out.History, domain.TickerMention{Symbol: h.Name, MentionCount: h.Mentions})
	}
	return out, nil
}

// FallbackStock is the record shown when symbol could not be loaded
func FallbackStock(symbol string) domain.StockDetail {
	return domain.StockDetail{
		Symbol:   strings.ToUpper(symbol),
		Analysis: unavailableAnalysis,
		History:  []domain.TickerMention{},
	}
}
