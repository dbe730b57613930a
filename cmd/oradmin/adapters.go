package main

import (
	"context"
	"errors"

	"github.com/example/or-admin/internal/application"
	"github.com/example/or-admin/internal/persistence"
)

// sessionSliceAdapter lets the tracker persist through the SQLite repository.
type sessionSliceAdapter struct {
	repo persistence.SessionSliceRepository
}

func newSessionSliceAdapter(repo persistence.SessionSliceRepository) *sessionSliceAdapter {
	return &sessionSliceAdapter{repo: repo}
}

func (a *sessionSliceAdapter) LoadSessionSlice(ctx context.Context) (application.SessionSlice, error) {
	stored, err := a.repo.LoadSessionSlice(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.SessionSlice{}, application.ErrNotFound
		}
		return application.SessionSlice{}, err
	}
	return toApplicationSlice(stored), nil
}

func (a *sessionSliceAdapter) SaveSessionSlice(ctx context.Context, slice application.SessionSlice) error {
	return a.repo.SaveSessionSlice(ctx, toPersistenceSlice(slice))
}

func (a *sessionSliceAdapter) ClearSessionSlice(ctx context.Context) error {
	return a.repo.ClearSessionSlice(ctx)
}

func toApplicationSlice(model persistence.SessionSlice) application.SessionSlice {
	roster := make([]application.Session, 0, len(model.Sessions))
	for _, session := range model.Sessions {
		roster = append(roster, toApplicationSession(session))
	}
	return application.SessionSlice{Timeout: model.Timeout, Roster: roster}
}

func toPersistenceSlice(slice application.SessionSlice) persistence.SessionSlice {
	sessions := make([]persistence.Session, 0, len(slice.Roster))
	for _, session := range slice.Roster {
		sessions = append(sessions, toPersistenceSession(session))
	}
	return persistence.SessionSlice{Timeout: slice.Timeout, Sessions: sessions}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:           model.ID,
		UserID:       model.UserID,
		UserName:     model.UserName,
		UserRole:     model.UserRole,
		StartTime:    model.StartTime,
		LastActivity: model.LastActivity,
		IPAddress:    model.IPAddress,
		DeviceInfo:   model.DeviceInfo,
		Status:       application.SessionStatus(model.Status),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:           session.ID,
		UserID:       session.UserID,
		UserName:     session.UserName,
		UserRole:     session.UserRole,
		StartTime:    session.StartTime,
		LastActivity: session.LastActivity,
		IPAddress:    session.IPAddress,
		DeviceInfo:   session.DeviceInfo,
		Status:       string(session.Status),
	}
}
