package application

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/example/or-admin/internal/ids"
	"github.com/example/or-admin/internal/store"
)

const defaultActivityCapacity = 1000

// ActivityLog keeps a bounded, newest-first record of administrative actions.
// Entries live only for the lifetime of the process.
type ActivityLog struct {
	state       *store.Store[ActivityState]
	idGenerator func() string
	now         func() time.Time
	capacity    int
}

// NewActivityLog constructs an activity log. A non-positive capacity selects the default.
func NewActivityLog(state *store.Store[ActivityState], idGenerator func() string, now func() time.Time, capacity int) *ActivityLog {
	if state == nil {
		state = store.New(ActivityState{})
	}
	if idGenerator == nil {
		idGenerator = ids.NewUUID
	}
	if now == nil {
		now = time.Now
	}
	if capacity <= 0 {
		capacity = defaultActivityCapacity
	}
	return &ActivityLog{state: state, idGenerator: idGenerator, now: now, capacity: capacity}
}

// Record prepends an entry and returns it. Missing severity defaults to info
// and a missing user to the actor stored in ctx.
func (l *ActivityLog) Record(ctx context.Context, input ActivityInput) ActivityEntry {
	if l == nil {
		return ActivityEntry{}
	}
	entry := ActivityEntry{
		ID:        l.idGenerator(),
		Action:    strings.TrimSpace(input.Action),
		User:      strings.TrimSpace(input.User),
		Target:    strings.TrimSpace(input.Target),
		Timestamp: l.now(),
		Details:   input.Details,
		Severity:  input.Severity,
	}
	if entry.Severity == "" {
		entry.Severity = ActivitySeverityInfo
	}
	if entry.User == "" {
		entry.User = ActorFromContext(ctx)
	}

	capacity := l.capacity
	_, _ = l.state.Dispatch(func(state ActivityState) (ActivityState, error) {
		entries := make([]ActivityEntry, 0, min(len(state.Entries)+1, capacity))
		entries = append(entries, entry)
		for _, existing := range state.Entries {
			if len(entries) >= capacity {
				break
			}
			entries = append(entries, existing)
		}
		return ActivityState{Entries: entries}, nil
	})
	return entry
}

// List returns entries newest first, optionally restricted to one severity.
func (l *ActivityLog) List(ctx context.Context, severity ActivitySeverity) []ActivityEntry {
	if l == nil {
		return nil
	}
	entries := l.state.State().Entries
	if severity == "" {
		return slices.Clone(entries)
	}
	out := make([]ActivityEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Severity == severity {
			out = append(out, entry)
		}
	}
	return out
}

// Clear removes every entry.
func (l *ActivityLog) Clear(ctx context.Context) {
	if l == nil {
		return
	}
	_, _ = l.state.Dispatch(func(ActivityState) (ActivityState, error) {
		return ActivityState{}, nil
	})
}
