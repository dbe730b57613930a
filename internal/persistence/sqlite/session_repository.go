package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/or-admin/internal/persistence"
)

// SessionSliceRepository implements persistence.SessionSliceRepository.
// Saving replaces the whole slice inside one transaction.
type SessionSliceRepository struct {
	pool *ConnectionPool
}

var _ persistence.SessionSliceRepository = (*SessionSliceRepository)(nil)

// NewSessionSliceRepository creates a repository on pool.
func NewSessionSliceRepository(pool *ConnectionPool) *SessionSliceRepository {
	return &SessionSliceRepository{pool: pool}
}

// LoadSessionSlice returns the saved timeout and roster in creation order.
func (r *SessionSliceRepository) LoadSessionSlice(ctx context.Context) (persistence.SessionSlice, error) {
	var timeoutMs int64
	err := r.pool.DB().QueryRowContext(ctx, `SELECT timeout_ms FROM session_settings WHERE id = 1`).Scan(&timeoutMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.SessionSlice{}, persistence.ErrNotFound
		}
		return persistence.SessionSlice{}, fmt.Errorf("load session timeout: %w", mapError(err))
	}

	rows, err := r.pool.DB().QueryContext(ctx, `
		SELECT id, user_id, user_name, user_role, start_time, last_activity, ip_address, device_info, status
		FROM sessions
		ORDER BY position ASC
	`)
	if err != nil {
		return persistence.SessionSlice{}, fmt.Errorf("load sessions: %w", mapError(err))
	}
	defer rows.Close()

	slice := persistence.SessionSlice{Timeout: time.Duration(timeoutMs) * time.Millisecond}
	for rows.Next() {
		var (
			session                 persistence.Session
			startTime, lastActivity string
		)
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.UserName,
			&session.UserRole,
			&startTime,
			&lastActivity,
			&session.IPAddress,
			&session.DeviceInfo,
			&session.Status,
		); err != nil {
			return persistence.SessionSlice{}, fmt.Errorf("scan session: %w", err)
		}
		if session.StartTime, err = parseTime(startTime); err != nil {
			return persistence.SessionSlice{}, fmt.Errorf("parse start_time of %s: %w", session.ID, err)
		}
		if session.LastActivity, err = parseTime(lastActivity); err != nil {
			return persistence.SessionSlice{}, fmt.Errorf("parse last_activity of %s: %w", session.ID, err)
		}
		slice.Sessions = append(slice.Sessions, session)
	}
	if err := rows.Err(); err != nil {
		return persistence.SessionSlice{}, fmt.Errorf("iterate sessions: %w", err)
	}
	return slice, nil
}

// SaveSessionSlice overwrites the stored timeout and roster.
func (r *SessionSliceRepository) SaveSessionSlice(ctx context.Context, slice persistence.SessionSlice) error {
	if slice.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", persistence.ErrConstraintViolation)
	}
	for _, session := range slice.Sessions {
		if strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.UserID) == "" {
			return fmt.Errorf("%w: session id and user id are required", persistence.ErrConstraintViolation)
		}
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO session_settings (id, timeout_ms) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET timeout_ms = excluded.timeout_ms
		`, slice.Timeout.Milliseconds()); err != nil {
			return fmt.Errorf("save session timeout: %w", mapError(err))
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
			return fmt.Errorf("clear sessions: %w", mapError(err))
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sessions (position, id, user_id, user_name, user_role, start_time, last_activity, ip_address, device_info, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare session insert: %w", mapError(err))
		}
		defer stmt.Close()

		for i, session := range slice.Sessions {
			if _, err := stmt.ExecContext(ctx,
				i,
				session.ID,
				session.UserID,
				session.UserName,
				session.UserRole,
				formatTime(session.StartTime),
				formatTime(session.LastActivity),
				session.IPAddress,
				session.DeviceInfo,
				session.Status,
			); err != nil {
				return fmt.Errorf("save session %s: %w", session.ID, mapError(err))
			}
		}
		return nil
	})
}

// ClearSessionSlice removes the stored timeout and roster.
func (r *SessionSliceRepository) ClearSessionSlice(ctx context.Context) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
			return fmt.Errorf("clear sessions: %w", mapError(err))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM session_settings`); err != nil {
			return fmt.Errorf("clear session timeout: %w", mapError(err))
		}
		return nil
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
