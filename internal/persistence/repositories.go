package persistence

import "context"

// SessionSliceRepository stores the session slice as a single unit.
// LoadSessionSlice returns ErrNotFound until something has been saved.
type SessionSliceRepository interface {
	LoadSessionSlice(ctx context.Context) (SessionSlice, error)
	SaveSessionSlice(ctx context.Context, slice SessionSlice) error
	ClearSessionSlice(ctx context.Context) error
}
