// Package engine runs the live ranking view: it owns the pending and applied
// filters, the last published ranking and the poll loop that keeps it fresh.
//
// All state lives on a single loop goroutine started by Run. Entry points
// hand closures to that loop and wait for them to finish, so every event
// (user action, timer tick, fetch completion) runs to completion before the
// next one. State returns the snapshot published after the last event.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/qepting91/ticker-pulse/internal/domain"
	"github.com/qepting91/ticker-pulse/internal/filter"
)

// DefaultInterval is the poll cadence of the live view
const DefaultInterval = 60 * time.Second

// DefaultFetchTimeout bounds one ranking round trip
const DefaultFetchTimeout = 10 * time.Second

// snapshotBuffer is how many published rankings may wait for the recorder
const snapshotBuffer = 16

// StalePolicy decides what happens to a response that completes after a
// newer one has already been applied.
type StalePolicy int

const (
	// OverwriteAlways applies every completion; the last to arrive wins
	OverwriteAlways StalePolicy = iota
	// DiscardStale drops completions older than the last applied one
	DiscardStale
)

func (p StalePolicy) String() string {
	if p == DiscardStale {
		return "discard_stale"
	}
	return "overwrite_always"
}

// Option configures an Engine
type Option func(*Engine)

func WithInterval(d time.Duration) Option { return func(e *Engine) { e.interval = d } }
func WithFetchTimeout(d time.Duration) Option { return func(e *Engine) { e.timeout = d } }
func WithTicker(f TickerFunc) Option { return func(e *Engine) { e.newTicker = f } }
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithStalePolicy(p StalePolicy) Option { return func(e *Engine) { e.stale = p } }
// WithInitialFilter replaces the {all, 3, days} starting filter. An
// out-of-range value is clamped into its unit's bounds.
func WithInitialFilter(f domain.AppliedFilter) Option {
	return func(e *Engine) { e.initial = f }
}

type command struct {
	run  func()
	done chan struct{}
}

// Engine is the view-facing live ranking engine
type Engine struct {
	src       domain.RankingSource
	log       *slog.Logger
	interval  time.Duration
	timeout   time.Duration
	newTicker TickerFunc
	now       func() time.Time
	stale     StalePolicy
	initial   domain.AppliedFilter

	cmds    chan command
	results chan fetchOutcome
	snaps   chan domain.Snapshot
	stopped chan struct{}
	started atomic.Bool
	state   atomic.Pointer[domain.EngineState]

	// owned by the loop goroutine
	runCtx     context.Context
	filters    *filter.Manager
	result     domain.RankingResult
	loading    bool
	lastErr    error
	updatedAt  time.Time
	seq        uint64
	appliedSeq uint64
}

// New builds an Engine fetching through src. Call Run to mount it.
func New(src domain.RankingSource, opts ...Option) *Engine {
	e := &Engine{
		src:       src,
		log:       slog.Default(),
		interval:  DefaultInterval,
		timeout:   DefaultFetchTimeout,
		newTicker: NewTicker,
		now:       time.Now,
		initial:   domain.DefaultAppliedFilter(),
		cmds:      make(chan command),
		results:   make(chan fetchOutcome),
		snaps:     make(chan domain.Snapshot, snapshotBuffer),
		stopped:   make(chan struct{}),
		result:    domain.EmptyResult(),
	}
	for _, o := range opts {
		o(e)
	}
	e.filters = filter.NewManager(e.initial)
	e.publish()
	return e
}

// State returns a copy of the last published state
func (e *Engine) State() domain.EngineState {
	s := *e.state.Load()
	s.Result = s.Result.Clone()
	return s
}

// Snapshots delivers each successfully applied ranking. It is closed when Run returns.
func (e *Engine) Snapshots() <-chan domain.Snapshot { return e.snaps }

// SetSubreddit edits the pending subreddit
func (e *Engine) SetSubreddit(ctx context.Context, sub domain.Subreddit) error {
	return e.exec(ctx, func() { e.filters.SetSubreddit(sub) })
}

// SetTimeValue edits the pending time value as typed
func (e *Engine) SetTimeValue(ctx context.Context, raw string) error {
	return e.exec(ctx, func() { e.filters.SetTimeValue(raw) })
}

// SetTimeUnit edits the pending unit, lowering an out-of-range value
func (e *Engine) SetTimeUnit(ctx context.Context, unit domain.TimeUnit) error {
	return e.exec(ctx, func() { e.filters.SetTimeUnit(unit) })
}

// Apply commits the pending filter and fetches with it. It reports false,
// without fetching, while the pending value is invalid.
func (e *Engine) Apply(ctx context.Context) (bool, error) {
	var ok bool
	err := e.exec(ctx, func() {
		var applied domain.AppliedFilter
		if applied, ok = e.filters.Apply(); ok {
			e.log.Debug("filter applied", "subreddit", applied.Subreddit, "value", applied.TimeValue, "unit", applied.TimeUnit)
			e.issue(causeApply)
		}
	})
	return ok, err
}

// Refresh fetches again with the current applied filter
func (e *Engine) Refresh(ctx context.Context) error {
	return e.exec(ctx, func() { e.issue(causeRefresh) })
}

// exec runs fn on the loop goroutine and waits for it
func (e *Engine) exec(ctx context.Context, fn func()) error {
	cmd := command{run: fn, done: make(chan struct{})}
	select {
	case e.cmds <- cmd:
	case <-e.stopped:
		return domain.ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-cmd.done
	return nil
}

var errRunTwice = errors.New("engine: Run called more than once")
