package engine

import (
	"context"
	"time"

	"github.com/qepting91/ticker-pulse/internal/domain"
	"github.com/qepting91/ticker-pulse/internal/filter"
)

// cause records why a fetch was issued
type cause string

const (
	causeMount   cause = "mount"
	causeTick    cause = "tick"
	causeApply   cause = "apply"
	causeRefresh cause = "refresh"
)

type fetchOutcome struct {
	seq      uint64
	cause    cause
	filter   domain.AppliedFilter
	params   domain.QueryParams
	result   domain.RankingResult
	err      error
	duration time.Duration
}

// Run mounts the engine: it fetches immediately, then on every tick, and
// serves entry points until ctx is cancelled. Fetches still in flight at
// that point are not aborted; their completions are dropped.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return errRunTwice
	}
	defer close(e.snaps)
	defer close(e.stopped)

	e.runCtx = context.WithoutCancel(ctx)
	ticker := e.newTicker(e.interval)
	defer ticker.Stop()

	e.log.Info("engine started", "interval", e.interval, "stale_policy", e.stale)
	e.issue(causeMount)
	e.publish()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped", "issued", e.seq)
			return nil
		case <-ticker.C():
			e.issue(causeTick)
			e.publish()
		case cmd := <-e.cmds:
			cmd.run()
			e.publish()
			close(cmd.done)
		case out := <-e.results:
			e.complete(out)
			e.publish()
		}
	}
}

// issue starts a fetch for the applied filter as it is right now
func (e *Engine) issue(c cause) {
	applied := e.filters.Applied()
	e.seq++
	seq := e.seq

	params, err := filter.ToQueryParams(applied)
	if err != nil {
		e.log.Error("cannot build query", "seq", seq, "cause", c, "unit", applied.TimeUnit, "err", err)
		e.appliedSeq = seq
		e.result = domain.EmptyResult()
		e.lastErr = err
		return
	}

	e.loading = true
	base := e.runCtx
	go func() {
		ctx, cancel := context.WithTimeout(base, e.timeout)
		defer cancel()

		start := time.Now()
		res, err := e.src.FetchRanking(ctx, params)
		out := fetchOutcome{
			seq:      seq,
			cause:    c,
			filter:   applied,
			params:   params,
			result:   res,
			err:      err,
			duration: time.Since(start),
		}
		select {
		case e.results <- out:
		case <-e.stopped:
		}
	}()
}

// complete folds a finished fetch into the state
func (e *Engine) complete(out fetchOutcome) {
	e.loading = false

	log := e.log.With("seq", out.seq, "cause", out.cause, "timeframe", out.params.Timeframe,
		"subreddit", out.params.Subreddit, "duration", out.duration)

	if e.stale == DiscardStale && out.seq < e.appliedSeq {
		log.Debug("stale response discarded", "applied_seq", e.appliedSeq)
		return
	}
	e.appliedSeq = out.seq

	if out.err != nil {
		log.Warn("fetch failed", "kind", domain.KindOf(out.err), "err", out.err)
		e.result = domain.EmptyResult()
		e.lastErr = out.err
		return
	}

	res := out.result.Clone()
	if res.FetchedAt.IsZero() {
		res.FetchedAt = e.now()
	}
	e.result = res
	e.lastErr = nil
	e.updatedAt = res.FetchedAt
	log.Info("fetch complete", "items", len(res.Items), "total_mentions", res.TotalMentions)

	e.record(domain.Snapshot{
		Seq:           out.seq,
		Filter:        out.filter,
		Query:         out.params,
		Items:         res.Clone().Items,
		TotalMentions: res.TotalMentions,
		FetchedAt:     res.FetchedAt,
	})
}

// record hands s to the recorder without ever blocking the loop
func (e *Engine) record(s domain.Snapshot) {
	select {
	case e.snaps <- s:
	default:
		e.log.Debug("snapshot dropped; recorder behind", "seq", s.Seq)
	}
}

// publish stores a fresh read-only copy of the loop state
func (e *Engine) publish() {
	s := &domain.EngineState{
		Pending:       e.filters.Pending(),
		Applied:       e.filters.Applied(),
		ApplyEnabled:  e.filters.CanApply(),
		Result:        e.result.Clone(),
		IsLoading:     e.loading,
		LastUpdatedAt: e.updatedAt,
	}
	if e.lastErr != nil {
		s.LastError = failureKind(e.lastErr)
		s.LastErrorText = e.lastErr.Error()
	}
	e.state.Store(s)
}

// failureKind is the kind shown to the view. Every failed round trip,
// malformed bodies included, reads as fetch_failed; the wrapped error
// keeps the finer cause for logs.
func failureKind(err error) domain.ErrorKind {
	switch k := domain.KindOf(err); k {
	case domain.KindMalformedResponse:
		return domain.KindFetchFailed
	default:
		return k
	}
}
