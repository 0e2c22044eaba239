package filter

import (
	"strconv"

	"github.com/qepting91/ticker-pulse/internal/domain"
)

// Manager owns the pending and applied filters. Edits only touch pending;
// Apply is the single writer of applied.
//
// Manager is not safe for concurrent use; the engine confines it to its loop.
type Manager struct {
	pending domain.PendingFilter
	applied domain.AppliedFilter
}

// NewManager starts both filters at initial, with its value pulled into
// the unit's bounds.
func NewManager(initial domain.AppliedFilter) *Manager {
	initial.TimeValue = clampInt(initial.TimeValue, initial.TimeUnit)
	return &Manager{
		pending: domain.PendingFilter{
			Subreddit: initial.Subreddit,
			TimeValue: strconv.Itoa(initial.TimeValue),
			TimeUnit:  initial.TimeUnit,
		},
		applied: initial,
	}
}

// Pending returns the in-progress edits
func (m *Manager) Pending() domain.PendingFilter { return m.pending }

// Applied returns the filter the last fetch was built from
func (m *Manager) Applied() domain.AppliedFilter { return m.applied }

// SetSubreddit edits the pending subreddit
func (m *Manager) SetSubreddit(sub domain.Subreddit) {
	m.pending.Subreddit = sub
}

// SetTimeValue stores raw as typed; it is only checked at apply time
func (m *Manager) SetTimeValue(raw string) {
	m.pending.TimeValue = raw
}

// SetTimeUnit switches the pending unit and lowers a held value that now
// exceeds the unit's max. Values are never raised.
func (m *Manager) SetTimeUnit(unit domain.TimeUnit) {
	m.pending.TimeUnit = unit
	if m.pending.TimeValue == "" {
		return
	}
	if b := Bounds(unit); parseValue(m.pending.TimeValue) > b.Max {
		m.pending.TimeValue = strconv.Itoa(b.Max)
	}
}

// CanApply reports whether apply is currently enabled
func (m *Manager) CanApply() bool {
	return IsValid(m.pending.TimeValue, m.pending.TimeUnit)
}

// Apply commits pending into applied. It is a no-op returning false while
// the pending value is invalid. The pending text is rewritten to the
// committed number when the two differ.
func (m *Manager) Apply() (domain.AppliedFilter, bool) {
	if !m.CanApply() {
		return m.applied, false
	}
	v := Clamp(m.pending.TimeValue, m.pending.TimeUnit)
	if s := strconv.Itoa(v); s != m.pending.TimeValue {
		m.pending.TimeValue = s
	}
	m.applied = domain.AppliedFilter{
		Subreddit: m.pending.Subreddit,
		TimeValue: v,
		TimeUnit:  m.pending.TimeUnit,
	}
	return m.applied, true
}
