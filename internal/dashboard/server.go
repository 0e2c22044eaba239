package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/qepting91/ticker-pulse/internal/collector"
	"github.com/qepting91/ticker-pulse/internal/domain"
	"github.com/qepting91/ticker-pulse/internal/storage"
)

// LiveEngine is what the live view reads and drives
type LiveEngine interface {
	State() domain.EngineState
	SetSubreddit(ctx context.Context, sub domain.Subreddit) error
	SetTimeValue(ctx context.Context, raw string) error
	SetTimeUnit(ctx context.Context, unit domain.TimeUnit) error
	Apply(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
}

// symbolRe guards the stock route
var symbolRe = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,10}$`)

// Server is the dashboard view layer
type Server struct {
	Engine       LiveEngine
	Snapshots    domain.SnapshotSource
	HistoryFile  string
	HistoryLimit int
	// RefreshEvery is how often the live page reloads itself
	RefreshEvery time.Duration
	Log          *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// Routes builds the dashboard router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/", s.handleLive)
	r.Post("/filters", s.handleFilters)
	r.Post("/apply", s.handleApply)
	r.Post("/refresh", s.handleRefresh)
	r.Get("/api/state", s.handleState)
	r.Get("/home", s.handleHome)
	r.Get("/stock/{symbol}", s.handleStock)
	return r
}

// Start serves the dashboard on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger().Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger().Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"req_id", middleware.GetReqID(r.Context()), "duration", time.Since(start))
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	st := s.Engine.State()
	var history []domain.Snapshot
	if s.HistoryFile != "" {
		h, err := storage.LoadHistory(s.HistoryFile, s.HistoryLimit)
		if err != nil {
			s.logger().Warn("history unavailable", "err", err)
		}
		history = h
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderLive(w, st, history, s.RefreshEvery); err != nil {
		s.logger().Error("render live view", "err", err)
	}
}

// setPending copies the form fields that are present onto the pending filter
func (s *Server) setPending(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	ctx := r.Context()
	if _, ok := r.PostForm["subreddit"]; ok {
		if err := s.Engine.SetSubreddit(ctx, domain.Subreddit(r.PostForm.Get("subreddit"))); err != nil {
			return err
		}
	}
	if _, ok := r.PostForm["time_value"]; ok {
		if err := s.Engine.SetTimeValue(ctx, r.PostForm.Get("time_value")); err != nil {
			return err
		}
	}
	if _, ok := r.PostForm["time_unit"]; ok {
		if err := s.Engine.SetTimeUnit(ctx, domain.TimeUnit(r.PostForm.Get("time_unit"))); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if err := s.setPending(r); err != nil {
		s.fail(w, err)
		return
	}
	s.done(w, r, nil)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if err := s.setPending(r); err != nil {
		s.fail(w, err)
		return
	}
	applied, err := s.Engine.Apply(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.done(w, r, &applied)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Refresh(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	s.done(w, r, nil)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.State())
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	home, err := s.Snapshots.FetchHome(r.Context())
	if err != nil {
		s.logger().Warn("home snapshot failed", "kind", domain.KindOf(err), "err", err)
		home = domain.HomeSnapshot{Result: domain.EmptyResult()}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHome(w, home); err != nil {
		s.logger().Error("render home", "err", err)
	}
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if !symbolRe.MatchString(symbol) {
		http.Error(w, "invalid symbol", http.StatusBadRequest)
		return
	}
	detail, err := s.Snapshots.FetchStock(r.Context(), strings.ToUpper(symbol))
	if err != nil {
		s.logger().Warn("stock detail failed", "symbol", symbol, "kind", domain.KindOf(err), "err", err)
		detail = collector.FallbackStock(symbol)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderStock(w, detail); err != nil {
		s.logger().Error("render stock", "err", err)
	}
}

// done answers a mutation: JSON callers get the state, browsers go back to the live view
func (s *Server) done(w http.ResponseWriter, r *http.Request, applied *bool) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		body := map[string]any{"state": s.Engine.State()}
		if applied != nil {
			body["applied"] = *applied
		}
		writeJSON(w, http.StatusOK, body)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, domain.ErrEngineStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	s.logger().Warn("dashboard action failed", "status", status, "err", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
