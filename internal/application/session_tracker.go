package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/example/or-admin/internal/ids"
	"github.com/example/or-admin/internal/store"
)

const (
	// DefaultSessionTimeout is the inactivity period after which the current session is terminated.
	DefaultSessionTimeout = 30 * time.Minute
	// DefaultWarningThreshold is how long before the timeout the countdown becomes visible.
	DefaultWarningThreshold = 2 * time.Minute
)

// SessionSliceRepository persists the timeout and roster across restarts.
// LoadSessionSlice returns ErrNotFound when nothing has been saved yet.
type SessionSliceRepository interface {
	LoadSessionSlice(ctx context.Context) (SessionSlice, error)
	SaveSessionSlice(ctx context.Context, slice SessionSlice) error
	ClearSessionSlice(ctx context.Context) error
}

// SessionTracker owns the session lifecycle: creating the current session,
// stamping activity, terminating sessions and deriving the expiry warning.
type SessionTracker struct {
	state            *store.Store[SessionState]
	slices           SessionSliceRepository
	activities       *ActivityLog
	idGenerator      func() string
	now              func() time.Time
	warningThreshold time.Duration
	logger           *slog.Logger
	metrics          Metrics

	persistMu sync.Mutex
}

// SessionTrackerConfig groups the optional collaborators of a SessionTracker.
type SessionTrackerConfig struct {
	Slices           SessionSliceRepository
	Activities       *ActivityLog
	IDGenerator      func() string
	Now              func() time.Time
	WarningThreshold time.Duration
	Logger           *slog.Logger
	Metrics          Metrics
}

// NewSessionTracker constructs a tracker around state. A zero timeout in the
// initial state is replaced with DefaultSessionTimeout.
func NewSessionTracker(state *store.Store[SessionState], cfg SessionTrackerConfig) *SessionTracker {
	if state == nil {
		state = store.New(SessionState{Timeout: DefaultSessionTimeout})
	}
	if state.State().Timeout <= 0 {
		_, _ = state.Dispatch(setTimeoutReducer(DefaultSessionTimeout))
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = ids.NewUUID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.WarningThreshold <= 0 {
		cfg.WarningThreshold = DefaultWarningThreshold
	}
	return &SessionTracker{
		state:            state,
		slices:           cfg.Slices,
		activities:       cfg.Activities,
		idGenerator:      cfg.IDGenerator,
		now:              cfg.Now,
		warningThreshold: cfg.WarningThreshold,
		logger:           defaultLogger(cfg.Logger),
		metrics:          defaultMetrics(cfg.Metrics),
	}
}

func (t *SessionTracker) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, t.logger, "SessionTracker", operation, attrs...)
}

// InitializeSession starts a new active session for user and makes it current.
func (t *SessionTracker) InitializeSession(ctx context.Context, user SessionUser) (session Session, err error) {
	if t == nil {
		err = fmt.Errorf("SessionTracker is nil")
		return
	}

	logger := t.loggerWith(ctx, "InitializeSession", "user_id", user.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session initialisation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session initialised")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(user.ID) == "" {
		vErr.add("user_id", "user id is required")
	}
	if err = vErr.orNil(); err != nil {
		return
	}

	now := t.now()
	session = Session{
		ID:           t.idGenerator(),
		UserID:       strings.TrimSpace(user.ID),
		UserName:     strings.TrimSpace(user.Name),
		UserRole:     strings.TrimSpace(user.Role),
		StartTime:    now,
		LastActivity: now,
		IPAddress:    strings.TrimSpace(user.IPAddress),
		DeviceInfo:   strings.TrimSpace(user.DeviceInfo),
		Status:       SessionStatusActive,
	}

	next, _ := t.state.Dispatch(initializeSessionReducer(session))
	t.metrics.ObserveSessionTransition(SessionStatusActive, "initialized")
	t.metrics.SetActiveSessions(countActive(next.Roster))
	t.record(ctx, "Session Started", session.ID, session.UserName, ActivitySeverityInfo)
	if perr := t.persist(ctx); perr != nil {
		// The session is already current; callers still need its identifier.
		logger.WarnContext(ctx, "session started without being persisted", "session_id", session.ID, "error", perr)
	}
	return
}

// UpdateLastActivity stamps the current session with the present time. It
// is a no-op without an active current session.
func (t *SessionTracker) UpdateLastActivity(ctx context.Context) error {
	if t == nil {
		return fmt.Errorf("SessionTracker is nil")
	}
	before := t.state.State()
	next, _ := t.state.Dispatch(touchSessionReducer(t.now()))
	if sameCurrent(before, next) {
		return nil
	}
	return t.persist(ctx)
}

// Continue acknowledges the expiry warning by refreshing activity.
func (t *SessionTracker) Continue(ctx context.Context) error {
	return t.UpdateLastActivity(ctx)
}

// TerminateSession ends the session with id. Unknown identifiers and
// sessions that already ended are ignored.
func (t *SessionTracker) TerminateSession(ctx context.Context, id string) error {
	return t.terminate(ctx, id, "explicit")
}

func (t *SessionTracker) terminate(ctx context.Context, id, reason string) (err error) {
	if t == nil {
		return fmt.Errorf("SessionTracker is nil")
	}

	logger := t.loggerWith(ctx, "TerminateSession", "session_id", id, "reason", reason)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session termination failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	before := t.state.State()
	next, _ := t.state.Dispatch(terminateSessionReducer(id))
	if countActive(before.Roster) == countActive(next.Roster) && sameCurrent(before, next) {
		return nil
	}

	t.metrics.ObserveSessionTransition(SessionStatusTerminated, reason)
	t.metrics.SetActiveSessions(countActive(next.Roster))
	severity := ActivitySeverityInfo
	if reason == "timeout" {
		severity = ActivitySeverityWarning
	}
	t.record(ctx, "Session Terminated", id, reason, severity)
	logger.InfoContext(ctx, "session terminated")
	return t.persist(ctx)
}

// ClearSession forgets the current session while keeping the roster.
func (t *SessionTracker) ClearSession(ctx context.Context) error {
	if t == nil {
		return fmt.Errorf("SessionTracker is nil")
	}
	_, _ = t.state.Dispatch(clearSessionReducer())
	return nil
}

// SetSessionTimeout changes the inactivity timeout. The timeout must be
// longer than the warning threshold.
func (t *SessionTracker) SetSessionTimeout(ctx context.Context, timeout time.Duration) error {
	if t == nil {
		return fmt.Errorf("SessionTracker is nil")
	}
	vErr := &ValidationError{}
	switch {
	case timeout <= 0:
		vErr.add("timeout", "timeout must be positive")
	case timeout <= t.warningThreshold:
		vErr.add("timeout", "timeout must be longer than the warning threshold")
	}
	if err := vErr.orNil(); err != nil {
		return err
	}
	_, _ = t.state.Dispatch(setTimeoutReducer(timeout))
	t.loggerWith(ctx, "SetSessionTimeout", "timeout", timeout).InfoContext(ctx, "session timeout updated")
	return t.persist(ctx)
}

// SessionTimeout returns the configured inactivity timeout.
func (t *SessionTracker) SessionTimeout() time.Duration {
	return t.state.State().Timeout
}

// WarningThreshold returns how long before expiry the warning becomes visible.
func (t *SessionTracker) WarningThreshold() time.Duration {
	return t.warningThreshold
}

// CurrentSession returns the current session, if any.
func (t *SessionTracker) CurrentSession() (Session, bool) {
	state := t.state.State()
	if state.Current == nil {
		return Session{}, false
	}
	return *state.Current, true
}

// Sessions returns a copy of the roster in creation order.
func (t *SessionTracker) Sessions() []Session {
	return slices.Clone(t.state.State().Roster)
}

// Subscribe registers fn for every session state change.
func (t *SessionTracker) Subscribe(fn func(SessionState)) func() {
	return t.state.Subscribe(fn)
}

// CheckExpiry terminates the current session once its inactivity exceeds
// the timeout and expires idle roster entries no session owns, such as
// those restored from a previous process. It reports whether the current
// session was terminated.
func (t *SessionTracker) CheckExpiry(ctx context.Context) (bool, error) {
	if t == nil {
		return false, fmt.Errorf("SessionTracker is nil")
	}
	now := t.now()
	if err := t.expireOrphans(ctx, now); err != nil {
		return false, err
	}

	state := t.state.State()
	current := state.Current
	if current == nil || current.Status != SessionStatusActive {
		return false, nil
	}
	if now.Sub(current.LastActivity) <= state.Timeout {
		return false, nil
	}
	return true, t.terminate(ctx, current.ID, "timeout")
}

func (t *SessionTracker) expireOrphans(ctx context.Context, now time.Time) error {
	before := t.state.State()
	if expireIdle(slices.Clone(before.Roster), currentID(before), now, before.Timeout) == 0 {
		return nil
	}
	next, _ := t.state.Dispatch(expireOrphansReducer(now))
	expired := countStatus(next.Roster, SessionStatusExpired) - countStatus(before.Roster, SessionStatusExpired)
	if expired <= 0 {
		return nil
	}
	for i := 0; i < expired; i++ {
		t.metrics.ObserveSessionTransition(SessionStatusExpired, "idle")
	}
	t.metrics.SetActiveSessions(countActive(next.Roster))
	t.loggerWith(ctx, "CheckExpiry").InfoContext(ctx, "idle sessions expired", "expired", expired)
	return t.persist(ctx)
}

// Warning computes the countdown for the current session. The warning is
// visible from timeout-threshold of inactivity onwards; Remaining never
// drops below zero and is truncated to whole seconds.
func (t *SessionTracker) Warning() SessionWarning {
	state := t.state.State()
	current := state.Current
	if current == nil || current.Status != SessionStatusActive {
		return SessionWarning{}
	}

	elapsed := t.now().Sub(current.LastActivity)
	warning := SessionWarning{SessionID: current.ID}
	if elapsed < state.Timeout-t.warningThreshold {
		return warning
	}

	warning.Visible = true
	remaining := state.Timeout - elapsed
	if remaining < 0 {
		remaining = 0
	}
	warning.Remaining = remaining.Truncate(time.Second)
	return warning
}

// Restore loads the persisted timeout and roster. Sessions left active by a
// previous process past the timeout are marked expired.
func (t *SessionTracker) Restore(ctx context.Context) (err error) {
	if t == nil {
		return fmt.Errorf("SessionTracker is nil")
	}
	if t.slices == nil {
		return nil
	}

	logger := t.loggerWith(ctx, "Restore")
	slice, err := t.slices.LoadSessionSlice(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.InfoContext(ctx, "no persisted sessions")
			return nil
		}
		logger.ErrorContext(ctx, "failed to load persisted sessions", "error", err)
		return err
	}

	if slice.Timeout > 0 && slice.Timeout <= t.warningThreshold {
		logger.WarnContext(ctx, "ignoring persisted timeout not longer than the warning threshold",
			"timeout", slice.Timeout, "warning_threshold", t.warningThreshold)
		slice.Timeout = 0
	}

	before := countStatus(slice.Roster, SessionStatusExpired)
	next, _ := t.state.Dispatch(restoreSessionsReducer(slice, t.now()))
	expired := countStatus(next.Roster, SessionStatusExpired) - before
	for i := 0; i < expired; i++ {
		t.metrics.ObserveSessionTransition(SessionStatusExpired, "restore")
	}
	t.metrics.SetActiveSessions(countActive(next.Roster))
	logger.InfoContext(ctx, "sessions restored", "roster_size", len(next.Roster), "expired", expired, "timeout", next.Timeout)

	if expired > 0 {
		return t.persist(ctx)
	}
	return nil
}

// Reset clears the persisted slice and restores the initial in-memory state.
func (t *SessionTracker) Reset(ctx context.Context) error {
	if t == nil {
		return fmt.Errorf("SessionTracker is nil")
	}
	t.state.Reset()
	if t.state.State().Timeout <= 0 {
		_, _ = t.state.Dispatch(setTimeoutReducer(DefaultSessionTimeout))
	}
	t.metrics.SetActiveSessions(countActive(t.state.State().Roster))
	if t.slices == nil {
		return nil
	}
	t.persistMu.Lock()
	defer t.persistMu.Unlock()
	return t.slices.ClearSessionSlice(ctx)
}

// persist saves the latest state. Saving under persistMu keeps concurrent
// writers from storing an older snapshot after a newer one.
func (t *SessionTracker) persist(ctx context.Context) error {
	if t.slices == nil {
		return nil
	}
	t.persistMu.Lock()
	defer t.persistMu.Unlock()

	state := t.state.State()
	if err := t.slices.SaveSessionSlice(ctx, SessionSlice{Timeout: state.Timeout, Roster: slices.Clone(state.Roster)}); err != nil {
		t.loggerWith(ctx, "persist").ErrorContext(ctx, "failed to persist sessions", "error", err)
		return fmt.Errorf("persist sessions: %w", err)
	}
	return nil
}

func (t *SessionTracker) record(ctx context.Context, action, target, details string, severity ActivitySeverity) {
	if t.activities == nil {
		return
	}
	t.activities.Record(ctx, ActivityInput{Action: action, Target: target, Details: details, Severity: severity})
}

func sameCurrent(a, b SessionState) bool {
	if a.Current == nil || b.Current == nil {
		return a.Current == b.Current
	}
	return *a.Current == *b.Current
}

func countStatus(roster []Session, status SessionStatus) int {
	count := 0
	for _, session := range roster {
		if session.Status == status {
			count++
		}
	}
	return count
}
