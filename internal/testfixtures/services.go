package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/or-admin/internal/application"
	"github.com/example/or-admin/internal/store"
)

// ServiceFactory builds application services wired to a shared clock,
// identifier sequence and activity log.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Activities  *application.ActivityLog
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Activities == nil {
		factory.Activities = application.NewActivityLog(nil, NewIDGenerator("activity").NextFunc(), factory.Clock.NowFunc(), 0)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// SurgeryServiceDeps captures optional dependencies for a surgery service.
type SurgeryServiceDeps struct {
	Seed    application.SurgeryState
	Logger  *slog.Logger
	Metrics application.Metrics
}

// NewSurgeryService builds a surgery service over a fresh store seeded with deps.Seed.
func (f *ServiceFactory) NewSurgeryService(deps SurgeryServiceDeps) *application.SurgeryService {
	return application.NewSurgeryServiceWithLogger(
		store.New(deps.Seed),
		f.Activities,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.Logger,
		deps.Metrics,
	)
}

// SessionTrackerDeps captures optional dependencies for a session tracker.
type SessionTrackerDeps struct {
	Slices           application.SessionSliceRepository
	Timeout          time.Duration
	WarningThreshold time.Duration
	Logger           *slog.Logger
	Metrics          application.Metrics
}

// NewSessionTracker builds a tracker on the factory clock. A zero timeout
// selects the default.
func (f *ServiceFactory) NewSessionTracker(deps SessionTrackerDeps) *application.SessionTracker {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = application.DefaultSessionTimeout
	}
	return application.NewSessionTracker(store.New(application.SessionState{Timeout: timeout}), application.SessionTrackerConfig{
		Slices:           deps.Slices,
		Activities:       f.Activities,
		IDGenerator:      f.IDGenerator.NextFunc(),
		Now:              f.Clock.NowFunc(),
		WarningThreshold: deps.WarningThreshold,
		Logger:           deps.Logger,
		Metrics:          deps.Metrics,
	})
}
