package application

import "time"

// SurgeryStatus tracks where a surgery is in its lifecycle.
type SurgeryStatus string

const (
	SurgeryStatusScheduled  SurgeryStatus = "scheduled"
	SurgeryStatusInProgress SurgeryStatus = "in-progress"
	SurgeryStatusCompleted  SurgeryStatus = "completed"
	SurgeryStatusCancelled  SurgeryStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle values.
func (s SurgeryStatus) Valid() bool {
	switch s {
	case SurgeryStatusScheduled, SurgeryStatusInProgress, SurgeryStatusCompleted, SurgeryStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s SurgeryStatus) Terminal() bool {
	return s == SurgeryStatusCompleted || s == SurgeryStatusCancelled
}

// Surgery is an operating room booking for a patient.
type Surgery struct {
	ID                    string
	PatientID             string
	SurgeryTypeID         string
	ScheduledDate         string
	StartTime             string
	EndTime               string
	OperatingRoom         string
	Status                SurgeryStatus
	Surgeons              []string
	Nurses                []string
	Anesthesiologist      string
	Notes                 string
	CancellationReason    string
	MaterialRequests      []string
	SterilizationRequests []string
	UpdatedAt             time.Time
}

// SurgeryInput captures caller provided fields for a new surgery.
type SurgeryInput struct {
	PatientID             string
	SurgeryTypeID         string
	ScheduledDate         string
	StartTime             string
	EndTime               string
	OperatingRoom         string
	Surgeons              []string
	Nurses                []string
	Anesthesiologist      string
	Notes                 string
	MaterialRequests      []string
	SterilizationRequests []string
}

// SurgeryPatch carries a partial update. Nil fields are left unchanged.
type SurgeryPatch struct {
	PatientID             *string
	SurgeryTypeID         *string
	ScheduledDate         *string
	StartTime             *string
	EndTime               *string
	OperatingRoom         *string
	Surgeons              *[]string
	Nurses                *[]string
	Anesthesiologist      *string
	Notes                 *string
	MaterialRequests      *[]string
	SterilizationRequests *[]string
}

func (p SurgeryPatch) touchesSlot() bool {
	return p.ScheduledDate != nil || p.StartTime != nil || p.EndTime != nil || p.OperatingRoom != nil
}

// SurgeryFilter narrows surgery listings. Empty fields match everything.
type SurgeryFilter struct {
	Date   string
	Room   string
	Status SurgeryStatus
}

// StaffRequirements lists the headcount a surgery type needs.
type StaffRequirements struct {
	Surgeons          int
	Nurses            int
	Anesthesiologists int
}

// SurgeryType describes a kind of procedure that can be scheduled.
type SurgeryType struct {
	ID                        string
	Name                      string
	Description               string
	EstimatedDuration         int
	RequiredEquipment         []string
	RequiredStaff             StaffRequirements
	PreOpRequirements         []string
	PostOpRequirements        []string
	SterilizationRequirements []string
}

// SurgeryTypeInput captures caller provided surgery type fields.
type SurgeryTypeInput struct {
	Name                      string
	Description               string
	EstimatedDuration         int
	RequiredEquipment         []string
	RequiredStaff             StaffRequirements
	PreOpRequirements         []string
	PostOpRequirements        []string
	SterilizationRequirements []string
}

// PatientStatus tracks where a patient is in the surgical pathway.
type PatientStatus string

const (
	PatientStatusActive    PatientStatus = "active"
	PatientStatusScheduled PatientStatus = "scheduled"
	PatientStatusCompleted PatientStatus = "completed"
	PatientStatusCancelled PatientStatus = "cancelled"
)

// Valid reports whether the status is known.
func (s PatientStatus) Valid() bool {
	switch s {
	case PatientStatusActive, PatientStatusScheduled, PatientStatusCompleted, PatientStatusCancelled:
		return true
	}
	return false
}

// Patient is a registered patient that surgeries can reference.
type Patient struct {
	ID            string
	MRN           string
	FirstName     string
	LastName      string
	DateOfBirth   string
	Gender        string
	ContactNumber string
	Status        PatientStatus
}

// PatientInput captures caller provided patient fields. An empty status
// defaults to active.
type PatientInput struct {
	MRN           string
	FirstName     string
	LastName      string
	DateOfBirth   string
	Gender        string
	ContactNumber string
	Status        PatientStatus
}

// StaffRole is the clinical role of a staff member.
type StaffRole string

const (
	StaffRoleSurgeon          StaffRole = "surgeon"
	StaffRoleNurse            StaffRole = "nurse"
	StaffRoleAnesthesiologist StaffRole = "anesthesiologist"
	StaffRoleStaff            StaffRole = "staff"
)

// Valid reports whether the role is known.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleSurgeon, StaffRoleNurse, StaffRoleAnesthesiologist, StaffRoleStaff:
		return true
	}
	return false
}

// StaffStatus tracks whether a staff member can be assigned.
type StaffStatus string

const (
	StaffStatusActive      StaffStatus = "active"
	StaffStatusOnLeave     StaffStatus = "on-leave"
	StaffStatusUnavailable StaffStatus = "unavailable"
)

// Valid reports whether the status is known.
func (s StaffStatus) Valid() bool {
	switch s {
	case StaffStatusActive, StaffStatusOnLeave, StaffStatusUnavailable:
		return true
	}
	return false
}

// StaffMember is a registered person who can be assigned to surgeries.
type StaffMember struct {
	ID             string
	Name           string
	Role           StaffRole
	Specialization string
	Department     string
	Status         StaffStatus
}

// StaffInput captures caller provided staff fields. An empty status
// defaults to active.
type StaffInput struct {
	Name           string
	Role           StaffRole
	Specialization string
	Department     string
	Status         StaffStatus
}

// SurgeryState is the in-memory surgery catalogue owned by the application
// root. Patients and staff live here so reference checks and bookings are
// decided against the same snapshot.
type SurgeryState struct {
	Types     []SurgeryType
	Surgeries []Surgery
	Patients  []Patient
	Staff     []StaffMember
}

// SessionStatus tracks a session's lifecycle.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	// SessionStatusExpired marks a session restored from storage after its
	// owner stopped ticking it past the inactivity timeout.
	SessionStatusExpired    SessionStatus = "expired"
	SessionStatusTerminated SessionStatus = "terminated"
)

// SessionUser identifies who a new session belongs to.
type SessionUser struct {
	ID         string
	Name       string
	Role       string
	IPAddress  string
	DeviceInfo string
}

// Session is a tracked period of user presence.
type Session struct {
	ID           string
	UserID       string
	UserName     string
	UserRole     string
	StartTime    time.Time
	LastActivity time.Time
	IPAddress    string
	DeviceInfo   string
	Status       SessionStatus
}

// SessionState holds the current session, the roster of known sessions and
// the inactivity timeout.
type SessionState struct {
	Current *Session
	Roster  []Session
	Timeout time.Duration
}

// SessionSlice is the portion of session state that survives restarts.
type SessionSlice struct {
	Timeout time.Duration
	Roster  []Session
}

// SessionWarning describes the countdown shown before an inactive session
// is terminated.
type SessionWarning struct {
	SessionID string
	Visible   bool
	Remaining time.Duration
}

// SecondsRemaining returns the whole seconds left before the timeout.
func (w SessionWarning) SecondsRemaining() int {
	return int(w.Remaining / time.Second)
}

// ActivitySeverity classifies activity log entries.
type ActivitySeverity string

const (
	ActivitySeverityInfo    ActivitySeverity = "info"
	ActivitySeverityWarning ActivitySeverity = "warning"
	ActivitySeverityError   ActivitySeverity = "error"
)

// ActivityInput captures the fields of a new activity entry.
type ActivityInput struct {
	Action   string
	User     string
	Target   string
	Details  string
	Severity ActivitySeverity
}

// ActivityEntry is a single record in the activity log.
type ActivityEntry struct {
	ID        string
	Action    string
	User      string
	Target    string
	Timestamp time.Time
	Details   string
	Severity  ActivitySeverity
}

// ActivityState holds activity entries, newest first.
type ActivityState struct {
	Entries []ActivityEntry
}
