package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qepting91/ticker-pulse/internal/config"
	"github.com/qepting91/ticker-pulse/internal/domain"
)

var fetchedAt = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func TestFromPayload(t *testing.T) {
	body := []byte(`{"status":200,"data":[{"ticker":"GME","mentions":12},{"ticker":"AMC","mentions":5}],"total_mentions":17}`)
	got, err := FromPayload(body, fetchedAt)
	if err != nil {
		t.Fatalf("FromPayload: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0] != (domain.TickerMention{Symbol: "GME", MentionCount: 12}) || got.Items[1].Symbol != "AMC" {
		t.Fatalf("items = %+v", got.Items)
	}
	if got.TotalMentions != 17 || !got.FetchedAt.Equal(fetchedAt) {
		t.Fatalf("result = %+v", got)
	}
}

func TestFromPayloadEmptyAndMissingTotal(t *testing.T) {
	got, err := FromPayload([]byte(`{"status":200,"data":[]}`), fetchedAt)
	if err != nil {
		t.Fatal(err)
	}
	if got.Items == nil || len(got.Items) != 0 || got.TotalMentions != 0 {
		t.Fatalf("result = %+v", got)
	}
}

func TestFromPayloadFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
		kind domain.ErrorKind
	}{
		{"status 404", `{"status":404,"data":[]}`, domain.KindFetchFailed},
		{"missing status", `{"data":[]}`, domain.KindFetchFailed},
		{"missing data", `{"status":200,"total_mentions":3}`, domain.KindMalformedResponse},
		{"null data", `{"status":200,"data":null}`, domain.KindMalformedResponse},
		{"data not a list", `{"status":200,"data":{"ticker":"GME"}}`, domain.KindMalformedResponse},
		{"negative mentions", `{"status":200,"data":[{"ticker":"GME","mentions":-1}]}`, domain.KindMalformedResponse},
		{"not json", `<html>oops</html>`, domain.KindMalformedResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromPayload([]byte(tc.body), fetchedAt)
			if err == nil {
				t.Fatalf("accepted %s", tc.body)
			}
			if !errors.Is(err, domain.ErrFetchFailed) {
				t.Fatalf("err %v does not match ErrFetchFailed", err)
			}
			if k := domain.KindOf(err); k != tc.kind {
				t.Fatalf("kind = %q, want %q", k, tc.kind)
			}
			if len(got.Items) != 0 || got.TotalMentions != 0 {
				t.Fatalf("partial result returned with error: %+v", got)
			}
		})
	}
}

func TestFromHomePayload(t *testing.T) {
	body := []byte(`{"data":[{"ticker":"TSLA","mentions":9}],"total_mentions":9,"batch_info":{"batch_start":"2026-04-01T00:00:00Z","batch_end":"2026-04-01T06:00:00Z"}}`)
	got, err := FromHomePayload(body, fetchedAt)
	if err != nil {
		t.Fatal(err)
	}
	if got.Result.TotalMentions != 9 || got.Batch == nil || got.Batch.End != "2026-04-01T06:00:00Z" {
		t.Fatalf("home = %+v", got)
	}
	if _, err := FromHomePayload([]byte(`{"total_mentions":1}`), fetchedAt); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("missing data err = %v", err)
	}
}

func TestFromStockPayload(t *testing.T) {
	body := []byte(`{"status":200,"data":{"symbol":"NVDA","total_mentions":40,"positive_mentions":30,"negative_mentions":null,
		"analysis_date":"2026-04-01","ai_analysis":"**Bullish**","historical_mentions":[{"name":"Mar 31","mentions":15},{"name":"Apr 1","mentions":25}]}}`)
	got, err := FromStockPayload(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.Symbol != "NVDA" || got.TotalMentions != 40 || got.PositiveMentions == nil || *got.PositiveMentions != 30 || got.NegativeMentions != nil {
		t.Fatalf("detail = %+v", got)
	}
	if len(got.History) != 2 || got.History[1].MentionCount != 25 {
		t.Fatalf("history = %+v", got.History)
	}

	_, err = FromStockPayload([]byte(`{"status":404,"message":"unknown symbol"}`))
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("status 404 err = %v", err)
	}
	if fb := FallbackStock("brk.b"); fb.Symbol != "BRK.B" || fb.Analysis != unavailableAnalysis || fb.TotalMentions != 0 {
		t.Fatalf("fallback = %+v", fb)
	}
}

func TestHTTPClientFetchRanking(t *testing.T) {
	var gotQuery, gotUA, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/top-10-filtered" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":200,"data":[{"ticker":"PLTR","mentions":3}],"total_mentions":3}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, ClientOptions{UserAgent: "pulse-test"})
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return fetchedAt }

	res, err := c.FetchRanking(context.Background(), domain.QueryParams{Timeframe: "9000m", Subreddit: "ValueInvesting"})
	if err != nil {
		t.Fatalf("FetchRanking: %v", err)
	}
	if gotQuery != "subreddit=ValueInvesting&timeframe=9000m" {
		t.Fatalf("query = %q", gotQuery)
	}
	if gotUA != "pulse-test" || gotReqID == "" {
		t.Fatalf("headers ua=%q reqid=%q", gotUA, gotReqID)
	}
	if len(res.Items) != 1 || res.Items[0].Symbol != "PLTR" || !res.FetchedAt.Equal(fetchedAt) {
		t.Fatalf("result = %+v", res)
	}
}

func TestHTTPClientNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := NewHTTPClient(srv.URL, ClientOptions{})
	_, err := c.FetchRanking(context.Background(), domain.QueryParams{Timeframe: "3d", Subreddit: "all"})
	if domain.KindOf(err) != domain.KindFetchFailed {
		t.Fatalf("err = %v (%s)", err, domain.KindOf(err))
	}
}

func TestHTTPClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := NewHTTPClient(url, ClientOptions{Timeout: time.Second})
	_, err := c.FetchRanking(context.Background(), domain.QueryParams{Timeframe: "3d", Subreddit: "all"})
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestHTTPClientRateLimited(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"status":200,"data":[]}`))
	}))
	defer srv.Close()

	c, _ := NewHTTPClient(srv.URL, ClientOptions{RateEvery: time.Hour, RateBurst: 1})
	ctx := context.Background()
	if _, err := c.FetchRanking(ctx, domain.QueryParams{Timeframe: "1d", Subreddit: "all"}); err != nil {
		t.Fatal(err)
	}
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := c.FetchRanking(short, domain.QueryParams{Timeframe: "1d", Subreddit: "all"}); !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("second call err = %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("limiter let %d requests through", hits.Load())
	}
}

func TestHTTPClientHomeAndStock(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/base/api/home-data", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"ticker":"SPY","mentions":2}],"total_mentions":2}`))
	})
	mux.HandleFunc("/base/api/stock/GME", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":200,"data":{"symbol":"GME","total_mentions":8,"ai_analysis":"","historical_mentions":[]}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL+"/base/", ClientOptions{})
	if err != nil {
		t.Fatal(err)
	}
	home, err := c.FetchHome(context.Background())
	if err != nil || home.Result.TotalMentions != 2 || home.Batch != nil {
		t.Fatalf("home = %+v, %v", home, err)
	}
	stock, err := c.FetchStock(context.Background(), "GME")
	if err != nil || stock.TotalMentions != 8 || stock.Analysis != "No analysis available" {
		t.Fatalf("stock = %+v, %v", stock, err)
	}
}

func TestNewHTTPClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewHTTPClient("/api", ClientOptions{}); err == nil {
		t.Fatal("relative base url accepted")
	}
}

func TestMockClient(t *testing.T) {
	mc := &MockClient{}
	res, err := mc.FetchRanking(context.Background(), domain.QueryParams{Timeframe: "3d", Subreddit: "all"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 10 {
		t.Fatalf("items = %d", len(res.Items))
	}
	sum := 0
	for i, it := range res.Items {
		sum += it.MentionCount
		if i > 0 && it.MentionCount > res.Items[i-1].MentionCount {
			t.Fatalf("mock ranking not descending: %+v", res.Items)
		}
	}
	if sum != res.TotalMentions {
		t.Fatalf("total %d != sum %d", res.TotalMentions, sum)
	}

	slow := &MockClient{Latency: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := slow.FetchHome(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled mock err = %v", err)
	}
}

func TestNewCollector(t *testing.T) {
	cfg := config.Defaults()
	c, err := NewCollector(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*HTTPClient); !ok {
		t.Fatalf("http mode built %T", c)
	}

	cfg.CollectorMode = config.ModeMock
	if c, _ := NewCollector(cfg); c == nil {
		t.Fatal("mock mode built nil")
	}

	cfg.CollectorMode = "reddit"
	if _, err := NewCollector(cfg); err == nil {
		t.Fatal("unknown mode accepted")
	}
}
