package application

import (
	"slices"
	"time"

	"github.com/example/or-admin/internal/store"
)

// initializeSessionReducer makes session current and appends it to the
// roster. Any previous current session is replaced, not merged.
func initializeSessionReducer(session Session) store.Reducer[SessionState] {
	return func(state SessionState) (SessionState, error) {
		next := state
		current := session
		next.Current = &current
		next.Roster = append(slices.Clip(state.Roster), session)
		return next, nil
	}
}

// touchSessionReducer stamps LastActivity on the active current session and
// its roster entry. Earlier timestamps are ignored so LastActivity never
// moves backwards.
func touchSessionReducer(now time.Time) store.Reducer[SessionState] {
	return func(state SessionState) (SessionState, error) {
		if state.Current == nil || state.Current.Status != SessionStatusActive {
			return state, nil
		}
		if !now.After(state.Current.LastActivity) {
			return state, nil
		}

		updated := *state.Current
		updated.LastActivity = now
		return withCurrent(state, updated), nil
	}
}

// terminateSessionReducer marks the roster entry with id terminated and
// mirrors the change onto the current session when it matches. Terminated
// and expired entries are left alone.
func terminateSessionReducer(id string) store.Reducer[SessionState] {
	return func(state SessionState) (SessionState, error) {
		idx := slices.IndexFunc(state.Roster, func(s Session) bool { return s.ID == id })
		currentMatches := state.Current != nil && state.Current.ID == id

		if idx < 0 && !currentMatches {
			return state, nil
		}

		next := state
		if idx >= 0 && state.Roster[idx].Status == SessionStatusActive {
			next.Roster = slices.Clone(state.Roster)
			next.Roster[idx].Status = SessionStatusTerminated
		}
		if currentMatches && state.Current.Status == SessionStatusActive {
			current := *state.Current
			current.Status = SessionStatusTerminated
			next.Current = &current
		}
		return next, nil
	}
}

func clearSessionReducer() store.Reducer[SessionState] {
	return func(state SessionState) (SessionState, error) {
		next := state
		next.Current = nil
		return next, nil
	}
}

func setTimeoutReducer(timeout time.Duration) store.Reducer[SessionState] {
	return func(state SessionState) (SessionState, error) {
		next := state
		next.Timeout = timeout
		return next, nil
	}
}

// restoreSessionsReducer loads a persisted slice. Roster entries still marked
// active whose inactivity exceeds the timeout were abandoned by a previous
// process and become expired.
func restoreSessionsReducer(slice SessionSlice, now time.Time) store.Reducer[SessionState] {
	return func(state SessionState) (SessionState, error) {
		next := state
		if slice.Timeout > 0 {
			next.Timeout = slice.Timeout
		}
		next.Roster = slices.Clone(slice.Roster)
		expireIdle(next.Roster, "", now, next.Timeout)
		next.Current = nil
		return next, nil
	}
}

// expireOrphansReducer expires idle active roster entries other than the
// current session. Nothing stamps their activity, so they can only age.
func expireOrphansReducer(now time.Time) store.Reducer[SessionState] {
	return func(state SessionState) (SessionState, error) {
		roster := slices.Clone(state.Roster)
		if expireIdle(roster, currentID(state), now, state.Timeout) == 0 {
			return state, nil
		}
		next := state
		next.Roster = roster
		return next, nil
	}
}

func currentID(state SessionState) string {
	if state.Current == nil {
		return ""
	}
	return state.Current.ID
}

// expireIdle marks active entries idle for longer than timeout expired,
// skipping skipID, and returns how many changed.
func expireIdle(roster []Session, skipID string, now time.Time, timeout time.Duration) int {
	changed := 0
	for i := range roster {
		if roster[i].Status != SessionStatusActive || (skipID != "" && roster[i].ID == skipID) {
			continue
		}
		if now.Sub(roster[i].LastActivity) > timeout {
			roster[i].Status = SessionStatusExpired
			changed++
		}
	}
	return changed
}

func withCurrent(state SessionState, current Session) SessionState {
	next := state
	next.Current = &current
	if idx := slices.IndexFunc(state.Roster, func(s Session) bool { return s.ID == current.ID }); idx >= 0 {
		next.Roster = slices.Clone(state.Roster)
		next.Roster[idx] = current
	}
	return next
}

func countActive(roster []Session) int {
	count := 0
	for _, session := range roster {
		if session.Status == SessionStatusActive {
			count++
		}
	}
	return count
}
