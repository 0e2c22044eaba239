package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/qepting91/ticker-pulse/internal/domain"
)

type fakeEngine struct {
	mu      sync.Mutex
	state   domain.EngineState
	calls   []string
	err     error
	applyOK bool
}

func (f *fakeEngine) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeEngine) State() domain.EngineState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeEngine) SetSubreddit(_ context.Context, sub domain.Subreddit) error {
	return f.record("subreddit=" + string(sub))
}

func (f *fakeEngine) SetTimeValue(_ context.Context, raw string) error {
	return f.record("value=" + raw)
}

func (f *fakeEngine) SetTimeUnit(_ context.Context, unit domain.TimeUnit) error {
	return f.record("unit=" + string(unit))
}

func (f *fakeEngine) Apply(context.Context) (bool, error) {
	return f.applyOK, f.record("apply")
}

func (f *fakeEngine) Refresh(context.Context) error { return f.record("refresh") }

type fakeSnapshots struct {
	home  domain.HomeSnapshot
	stock domain.StockDetail
	err   error
}

func (f *fakeSnapshots) FetchHome(context.Context) (domain.HomeSnapshot, error) {
	return f.home, f.err
}

func (f *fakeSnapshots) FetchStock(_ context.Context, symbol string) (domain.StockDetail, error) {
	return f.stock, f.err
}

func liveState() domain.EngineState {
	return domain.EngineState{
		Pending:      domain.PendingFilter{Subreddit: domain.SubredditStocks, TimeValue: "5", TimeUnit: domain.Days},
		Applied:      domain.AppliedFilter{Subreddit: domain.SubredditStocks, TimeValue: 5, TimeUnit: domain.Days},
		ApplyEnabled: true,
		Result: domain.RankingResult{
			Items:         []domain.TickerMention{{Symbol: "GME", MentionCount: 12}},
			TotalMentions: 12,
		},
		LastUpdatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newServer(eng *fakeEngine, snaps *fakeSnapshots) *Server {
	return &Server{
		Engine:       eng,
		Snapshots:    snaps,
		HistoryLimit: 10,
		RefreshEvery: time.Minute,
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestStateEndpoint(t *testing.T) {
	srv := httptest.NewServer(newServer(&fakeEngine{state: liveState()}, &fakeSnapshots{}).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var st domain.EngineState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Applied.TimeValue != 5 || st.Result.TotalMentions != 12 {
		t.Fatalf("state = %+v", st)
	}
}

func TestApplySetsFieldsInOrder(t *testing.T) {
	eng := &fakeEngine{state: liveState(), applyOK: true}
	h := newServer(eng, &fakeSnapshots{}).Routes()

	form := url.Values{"subreddit": {"valueinvesting"}, "time_value": {"9000"}, "time_unit": {"minutes"}}
	req := httptest.NewRequest(http.MethodPost, "/apply", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	want := []string{"subreddit=valueinvesting", "value=9000", "unit=minutes", "apply"}
	if strings.Join(eng.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", eng.calls, want)
	}
	var body struct {
		Applied bool `json:"applied"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || !body.Applied {
		t.Fatalf("body = %s (%v)", rec.Body.String(), err)
	}
}

func TestFiltersOnlyTouchPresentFields(t *testing.T) {
	eng := &fakeEngine{state: liveState()}
	h := newServer(eng, &fakeSnapshots{}).Routes()

	req := httptest.NewRequest(http.MethodPost, "/filters", strings.NewReader("time_unit=hours"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(eng.calls) != 1 || eng.calls[0] != "unit=hours" {
		t.Fatalf("calls = %v", eng.calls)
	}
}

func TestRefreshAndStoppedEngine(t *testing.T) {
	eng := &fakeEngine{state: liveState()}
	h := newServer(eng, &fakeSnapshots{}).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	if rec.Code != http.StatusSeeOther || len(eng.calls) != 1 || eng.calls[0] != "refresh" {
		t.Fatalf("refresh: status %d calls %v", rec.Code, eng.calls)
	}

	eng.err = domain.ErrEngineStopped
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("stopped engine status = %d", rec.Code)
	}
}

func TestLivePage(t *testing.T) {
	dir := t.TempDir()
	history := filepath.Join(dir, "history.json")
	line := `{"seq":1,"total_mentions":12,"fetched_at":"2026-04-01T09:00:00Z"}` + "\n"
	if err := os.WriteFile(history, []byte(line), 0o644); err != nil {
		t.Fatal(err)
	}

	st := liveState()
	st.IsLoading = true
	srv := newServer(&fakeEngine{state: st}, &fakeSnapshots{})
	srv.HistoryFile = history

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, want := range []string{"Live Market Pulse", "r/stocks", "Last 5 days", `value="stocks" selected`, "Apply Filters</button>"} {
		if !strings.Contains(body, want) {
			t.Errorf("live page missing %q", want)
		}
	}
	if !strings.Contains(body, `<button type="submit" disabled>Apply Filters`) {
		t.Error("apply not disabled while loading")
	}
	if !strings.Contains(body, "westeros") {
		t.Error("ranking chart not rendered with the westeros theme")
	}
}

func TestLivePageShowsFailure(t *testing.T) {
	st := liveState()
	st.Result = domain.EmptyResult()
	st.LastError = domain.KindFetchFailed
	rec := httptest.NewRecorder()
	newServer(&fakeEngine{state: st}, &fakeSnapshots{}).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "Latest fetch failed (fetch_failed)") {
		t.Fatal("failure not surfaced")
	}
}

func TestStockPage(t *testing.T) {
	snaps := &fakeSnapshots{err: errors.New("down")}
	h := newServer(&fakeEngine{}, snaps).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock/gme", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Unable to load analysis") || !strings.Contains(rec.Body.String(), "GME") {
		t.Fatalf("fallback page: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock/not_a$ymbol", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad symbol status = %d", rec.Code)
	}

	pos := 30
	snaps.err = nil
	snaps.stock = domain.StockDetail{Symbol: "NVDA", TotalMentions: 40, PositiveMentions: &pos, Analysis: "Bullish <b>run</b>"}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock/NVDA", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "<dd>30</dd>") || !strings.Contains(body, "Bullish &lt;b&gt;run&lt;/b&gt;") {
		t.Fatalf("stock page: %s", body)
	}
}

func TestHomePage(t *testing.T) {
	snaps := &fakeSnapshots{err: domain.ErrFetchFailed}
	rec := httptest.NewRecorder()
	newServer(&fakeEngine{}, snaps).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("home status = %d", rec.Code)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	srv := newServer(&fakeEngine{state: liveState()}, &fakeSnapshots{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return")
	}
}
