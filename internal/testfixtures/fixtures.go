package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/or-admin/internal/application"
	"github.com/example/or-admin/internal/persistence"
)

var (
	surgeryCounter     uint64
	surgeryTypeCounter uint64
	sessionCounter     uint64
)

var referenceTime = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the baseline instant shared by fixtures and clocks.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is ReferenceTime's calendar day in YYYY-MM-DD form.
func ReferenceDate() string {
	return referenceTime.Format(time.DateOnly)
}

// ----------------------------- Surgery fixtures -----------------------------

// SurgeryFixture describes a surgery booking with sensible defaults.
type SurgeryFixture struct {
	ID               string
	PatientID        string
	SurgeryTypeID    string
	ScheduledDate    string
	StartTime        string
	EndTime          string
	OperatingRoom    string
	Status           application.SurgeryStatus
	Surgeons         []string
	Nurses           []string
	Anesthesiologist string
	Notes            string
}

// SurgeryOption customises a SurgeryFixture.
type SurgeryOption func(*SurgeryFixture)

// NewSurgeryFixture returns a scheduled 09:00-11:00 booking in OR-1.
func NewSurgeryFixture(opts ...SurgeryOption) SurgeryFixture {
	n := atomic.AddUint64(&surgeryCounter, 1)
	fixture := SurgeryFixture{
		ID:               fmt.Sprintf("surgery-%d", n),
		PatientID:        fmt.Sprintf("patient-%d", n),
		SurgeryTypeID:    "type-general",
		ScheduledDate:    ReferenceDate(),
		StartTime:        "09:00",
		EndTime:          "11:00",
		OperatingRoom:    "OR-1",
		Status:           application.SurgeryStatusScheduled,
		Surgeons:         []string{"Dr. Sato"},
		Nurses:           []string{"Nurse Ito"},
		Anesthesiologist: "Dr. Kato",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSurgeryID overrides the surgery identifier.
func WithSurgeryID(id string) SurgeryOption {
	return func(f *SurgeryFixture) {
		f.ID = id
	}
}

// WithSurgerySlot places the booking in room between start and end ("HH:MM").
func WithSurgerySlot(room, start, end string) SurgeryOption {
	return func(f *SurgeryFixture) {
		f.OperatingRoom = room
		f.StartTime = start
		f.EndTime = end
	}
}

// WithSurgeryDate overrides the scheduled day.
func WithSurgeryDate(date string) SurgeryOption {
	return func(f *SurgeryFixture) {
		f.ScheduledDate = date
	}
}

// WithSurgeryType links the booking to a surgery type.
func WithSurgeryType(id string) SurgeryOption {
	return func(f *SurgeryFixture) {
		f.SurgeryTypeID = id
	}
}

// WithSurgeryStatus overrides the lifecycle status.
func WithSurgeryStatus(status application.SurgeryStatus) SurgeryOption {
	return func(f *SurgeryFixture) {
		f.Status = status
	}
}

// Input converts the fixture into a scheduling request.
func (f SurgeryFixture) Input() application.SurgeryInput {
	return application.SurgeryInput{
		PatientID:        f.PatientID,
		SurgeryTypeID:    f.SurgeryTypeID,
		ScheduledDate:    f.ScheduledDate,
		StartTime:        f.StartTime,
		EndTime:          f.EndTime,
		OperatingRoom:    f.OperatingRoom,
		Surgeons:         append([]string(nil), f.Surgeons...),
		Nurses:           append([]string(nil), f.Nurses...),
		Anesthesiologist: f.Anesthesiologist,
		Notes:            f.Notes,
	}
}

// Application converts the fixture into a stored surgery, for seeding state.
func (f SurgeryFixture) Application() application.Surgery {
	return application.Surgery{
		ID:               f.ID,
		PatientID:        f.PatientID,
		SurgeryTypeID:    f.SurgeryTypeID,
		ScheduledDate:    f.ScheduledDate,
		StartTime:        f.StartTime,
		EndTime:          f.EndTime,
		OperatingRoom:    f.OperatingRoom,
		Status:           f.Status,
		Surgeons:         append([]string(nil), f.Surgeons...),
		Nurses:           append([]string(nil), f.Nurses...),
		Anesthesiologist: f.Anesthesiologist,
		Notes:            f.Notes,
		UpdatedAt:        referenceTime,
	}
}

// --------------------------- Surgery type fixtures ---------------------------

// SurgeryTypeFixture describes a catalogue entry.
type SurgeryTypeFixture struct {
	ID                string
	Name              string
	EstimatedDuration int
	RequiredStaff     application.StaffRequirements
}

// NewSurgeryTypeFixture returns a 90 minute procedure needing one surgeon,
// two nurses and one anesthesiologist.
func NewSurgeryTypeFixture(name string) SurgeryTypeFixture {
	n := atomic.AddUint64(&surgeryTypeCounter, 1)
	if name == "" {
		name = fmt.Sprintf("Procedure %d", n)
	}
	return SurgeryTypeFixture{
		ID:                fmt.Sprintf("type-%d", n),
		Name:              name,
		EstimatedDuration: 90,
		RequiredStaff:     application.StaffRequirements{Surgeons: 1, Nurses: 2, Anesthesiologists: 1},
	}
}

// Input converts the fixture into a creation request.
func (f SurgeryTypeFixture) Input() application.SurgeryTypeInput {
	return application.SurgeryTypeInput{
		Name:              f.Name,
		EstimatedDuration: f.EstimatedDuration,
		RequiredStaff:     f.RequiredStaff,
	}
}

// ----------------------------- Session fixtures -----------------------------

// SessionFixture describes a roster entry.
type SessionFixture struct {
	ID           string
	UserID       string
	UserName     string
	UserRole     string
	StartTime    time.Time
	LastActivity time.Time
	IPAddress    string
	DeviceInfo   string
	Status       application.SessionStatus
}

// SessionOption customises a SessionFixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns an active session that started at ReferenceTime.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	n := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:           fmt.Sprintf("session-%d", n),
		UserID:       fmt.Sprintf("user-%d", n),
		UserName:     fmt.Sprintf("Staff %d", n),
		UserRole:     "nurse",
		StartTime:    referenceTime,
		LastActivity: referenceTime,
		IPAddress:    "10.0.0.1",
		DeviceInfo:   "ward terminal",
		Status:       application.SessionStatusActive,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the session identifier.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionLastActivity overrides the last activity instant.
func WithSessionLastActivity(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.LastActivity = t
	}
}

// WithSessionStatus overrides the status.
func WithSessionStatus(status application.SessionStatus) SessionOption {
	return func(f *SessionFixture) {
		f.Status = status
	}
}

// User returns the identity used to start the session.
func (f SessionFixture) User() application.SessionUser {
	return application.SessionUser{
		ID:         f.UserID,
		Name:       f.UserName,
		Role:       f.UserRole,
		IPAddress:  f.IPAddress,
		DeviceInfo: f.DeviceInfo,
	}
}

// Application converts the fixture into an application session.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:           f.ID,
		UserID:       f.UserID,
		UserName:     f.UserName,
		UserRole:     f.UserRole,
		StartTime:    f.StartTime,
		LastActivity: f.LastActivity,
		IPAddress:    f.IPAddress,
		DeviceInfo:   f.DeviceInfo,
		Status:       f.Status,
	}
}

// Persistence converts the fixture into its stored form.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:           f.ID,
		UserID:       f.UserID,
		UserName:     f.UserName,
		UserRole:     f.UserRole,
		StartTime:    f.StartTime,
		LastActivity: f.LastActivity,
		IPAddress:    f.IPAddress,
		DeviceInfo:   f.DeviceInfo,
		Status:       string(f.Status),
	}
}
