package application

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/example/or-admin/internal/scheduler"
	"github.com/example/or-admin/internal/store"
)

// scheduleSurgeryReducer appends candidate when it passes validation and the
// room/date slot is free. On failure the state is returned untouched.
func scheduleSurgeryReducer(candidate Surgery) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		booking, err := validateSurgery(candidate, state, allReferences)
		if err != nil {
			return state, err
		}
		if err := ensureSlotFree(booking, state.Surgeries); err != nil {
			return state, err
		}

		next := state
		next.Surgeries = append(slices.Clip(state.Surgeries), cloneSurgery(candidate))
		return next, nil
	}
}

// updateSurgeryReducer merges patch into the surgery with id. Slot changes on
// surgeries that still occupy a room are re-checked against every other surgery.
func updateSurgeryReducer(id string, patch SurgeryPatch, now time.Time) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		idx := indexOfSurgery(state.Surgeries, id)
		if idx < 0 {
			return state, ErrNotFound
		}

		updated := applySurgeryPatch(state.Surgeries[idx], patch)
		updated.UpdatedAt = now

		booking, err := validateSurgery(updated, state, patch.references())
		if err != nil {
			return state, err
		}
		if patch.touchesSlot() && updated.Status != SurgeryStatusCancelled {
			if err := ensureSlotFree(booking, state.Surgeries); err != nil {
				return state, err
			}
		}

		return replaceSurgery(state, idx, updated), nil
	}
}

// transitionSurgeryReducer moves a surgery to status. Cancellation stores
// reason; other transitions clear nothing.
func transitionSurgeryReducer(id string, to SurgeryStatus, reason string, now time.Time) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		idx := indexOfSurgery(state.Surgeries, id)
		if idx < 0 {
			return state, ErrNotFound
		}

		current := state.Surgeries[idx]
		if !canTransition(current.Status, to) {
			return state, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
		}

		updated := cloneSurgery(current)
		updated.Status = to
		if to == SurgeryStatusCancelled {
			updated.CancellationReason = reason
		}
		updated.UpdatedAt = now
		return replaceSurgery(state, idx, updated), nil
	}
}

func canTransition(from, to SurgeryStatus) bool {
	switch to {
	case SurgeryStatusInProgress:
		return from == SurgeryStatusScheduled
	case SurgeryStatusCompleted:
		return from == SurgeryStatusInProgress
	case SurgeryStatusCancelled:
		return !from.Terminal()
	}
	return false
}

func addSurgeryTypeReducer(surgeryType SurgeryType) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		if err := validateSurgeryType(surgeryType); err != nil {
			return state, err
		}
		next := state
		next.Types = append(slices.Clip(state.Types), cloneSurgeryType(surgeryType))
		return next, nil
	}
}

func updateSurgeryTypeReducer(id string, input SurgeryTypeInput) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		idx := slices.IndexFunc(state.Types, func(t SurgeryType) bool { return t.ID == id })
		if idx < 0 {
			return state, ErrNotFound
		}
		updated := surgeryTypeFromInput(id, input)
		if err := validateSurgeryType(updated); err != nil {
			return state, err
		}
		next := state
		next.Types = slices.Clone(state.Types)
		next.Types[idx] = updated
		return next, nil
	}
}

func deleteSurgeryTypeReducer(id string) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		idx := slices.IndexFunc(state.Types, func(t SurgeryType) bool { return t.ID == id })
		if idx < 0 {
			return state, ErrNotFound
		}
		next := state
		next.Types = slices.Delete(slices.Clone(state.Types), idx, idx+1)
		return next, nil
	}
}

// referenceSet selects which catalogue references of a surgery are checked.
type referenceSet struct {
	patient     bool
	surgeryType bool
	staff       bool
}

var allReferences = referenceSet{patient: true, surgeryType: true, staff: true}

// references reports the catalogue references a patch replaces. Untouched
// references stay valid even if their catalogue entry was removed since.
func (p SurgeryPatch) references() referenceSet {
	return referenceSet{
		patient:     p.PatientID != nil,
		surgeryType: p.SurgeryTypeID != nil,
		staff:       p.Surgeons != nil || p.Nurses != nil || p.Anesthesiologist != nil,
	}
}

// validateSurgery checks field formats and the selected catalogue references,
// and returns the booking used for conflict detection.
func validateSurgery(surgery Surgery, state SurgeryState, refs referenceSet) (scheduler.Booking, error) {
	vErr := &ValidationError{}

	if strings.TrimSpace(surgery.PatientID) == "" {
		vErr.add("patient_id", "patient is required")
	} else if refs.patient && len(state.Patients) > 0 && indexOfPatient(state.Patients, surgery.PatientID) < 0 {
		vErr.add("patient_id", "patient does not exist")
	}
	if strings.TrimSpace(surgery.SurgeryTypeID) == "" {
		vErr.add("surgery_type_id", "surgery type is required")
	} else if refs.surgeryType && len(state.Types) > 0 && !slices.ContainsFunc(state.Types, func(t SurgeryType) bool { return t.ID == surgery.SurgeryTypeID }) {
		vErr.add("surgery_type_id", "surgery type does not exist")
	}
	if refs.staff && len(state.Staff) > 0 {
		checkStaff(vErr, "surgeons", "surgeon", surgery.Surgeons, StaffRoleSurgeon, state.Staff)
		checkStaff(vErr, "nurses", "nurse", surgery.Nurses, StaffRoleNurse, state.Staff)
		if surgery.Anesthesiologist != "" {
			checkStaff(vErr, "anesthesiologist", "anesthesiologist", []string{surgery.Anesthesiologist}, StaffRoleAnesthesiologist, state.Staff)
		}
	}
	if strings.TrimSpace(surgery.OperatingRoom) == "" {
		vErr.add("operating_room", "operating room is required")
	}
	if strings.TrimSpace(surgery.Anesthesiologist) == "" {
		vErr.add("anesthesiologist", "anesthesiologist is required")
	}
	if len(nonEmpty(surgery.Surgeons)) == 0 {
		vErr.add("surgeons", "at least one surgeon is required")
	}

	if surgery.ScheduledDate == "" {
		vErr.add("scheduled_date", "scheduled date is required")
	} else if _, err := scheduler.ParseDate(surgery.ScheduledDate); err != nil {
		vErr.add("scheduled_date", "scheduled date must be YYYY-MM-DD")
	}

	start, startErr := parseClockField(vErr, "start_time", "start time", surgery.StartTime)
	end, endErr := parseClockField(vErr, "end_time", "end time", surgery.EndTime)

	booking := scheduler.Booking{
		ID:        surgery.ID,
		Room:      surgery.OperatingRoom,
		Date:      surgery.ScheduledDate,
		Start:     start,
		End:       end,
		Cancelled: surgery.Status == SurgeryStatusCancelled,
	}
	if startErr == nil && endErr == nil {
		if err := booking.Validate(); err != nil {
			vErr.add("time", "end must be after start")
			vErr.cause = ErrInvalidTimeRange
		}
	}

	return booking, vErr.orNil()
}

// checkStaff requires every name to match an active staff member with role,
// by identifier or by name.
func checkStaff(vErr *ValidationError, field, label string, names []string, role StaffRole, staff []StaffMember) {
	for _, name := range names {
		ok := slices.ContainsFunc(staff, func(m StaffMember) bool {
			return (m.ID == name || m.Name == name) && m.Role == role && m.Status == StaffStatusActive
		})
		if !ok {
			vErr.add(field, label+" must be active registered staff")
			return
		}
	}
}

func parseClockField(vErr *ValidationError, field, label, value string) (scheduler.ClockTime, error) {
	if value == "" {
		vErr.add(field, label+" is required")
		return 0, scheduler.ErrInvalidClockTime
	}
	clock, err := scheduler.ParseClockTime(value)
	if err != nil {
		vErr.add(field, label+" must be HH:MM")
		return 0, err
	}
	return clock, nil
}

func validateSurgeryType(surgeryType SurgeryType) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(surgeryType.Name) == "" {
		vErr.add("name", "name is required")
	}
	if surgeryType.EstimatedDuration <= 0 {
		vErr.add("estimated_duration", "estimated duration must be positive")
	}
	staff := surgeryType.RequiredStaff
	if staff.Surgeons < 0 || staff.Nurses < 0 || staff.Anesthesiologists < 0 {
		vErr.add("required_staff", "required staff counts must not be negative")
	}
	return vErr.orNil()
}

// ensureSlotFree rejects candidates that overlap another active surgery in
// the same room on the same day.
func ensureSlotFree(candidate scheduler.Booking, surgeries []Surgery) error {
	existing := make([]scheduler.Booking, 0, len(surgeries))
	for _, surgery := range surgeries {
		booking, ok := toBooking(surgery)
		if !ok {
			continue
		}
		existing = append(existing, booking)
	}

	conflicts := scheduler.DetectConflicts(existing, candidate)
	if len(conflicts) == 0 {
		return nil
	}
	first := conflicts[0]
	return fmt.Errorf("%w: %s on %s is booked %s-%s by surgery %s",
		ErrSchedulingConflict, first.Room, first.Date, first.Start, first.End, first.WithBookingID)
}

// toBooking converts a stored surgery. Entries whose times cannot be parsed
// are skipped; every write path validates them, so this only guards seeded data.
func toBooking(surgery Surgery) (scheduler.Booking, bool) {
	start, err := scheduler.ParseClockTime(surgery.StartTime)
	if err != nil {
		return scheduler.Booking{}, false
	}
	end, err := scheduler.ParseClockTime(surgery.EndTime)
	if err != nil {
		return scheduler.Booking{}, false
	}
	return scheduler.Booking{
		ID:        surgery.ID,
		Room:      surgery.OperatingRoom,
		Date:      surgery.ScheduledDate,
		Start:     start,
		End:       end,
		Cancelled: surgery.Status == SurgeryStatusCancelled,
	}, true
}

func applySurgeryPatch(surgery Surgery, patch SurgeryPatch) Surgery {
	out := cloneSurgery(surgery)
	setString(&out.PatientID, patch.PatientID)
	setString(&out.SurgeryTypeID, patch.SurgeryTypeID)
	setString(&out.ScheduledDate, patch.ScheduledDate)
	setString(&out.StartTime, patch.StartTime)
	setString(&out.EndTime, patch.EndTime)
	setString(&out.OperatingRoom, patch.OperatingRoom)
	setString(&out.Anesthesiologist, patch.Anesthesiologist)
	setString(&out.Notes, patch.Notes)
	setStrings(&out.Surgeons, patch.Surgeons)
	setStrings(&out.Nurses, patch.Nurses)
	setStrings(&out.MaterialRequests, patch.MaterialRequests)
	setStrings(&out.SterilizationRequests, patch.SterilizationRequests)
	return out
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func setStrings(dst *[]string, value *[]string) {
	if value != nil {
		*dst = nonEmpty(*value)
	}
}

func replaceSurgery(state SurgeryState, idx int, surgery Surgery) SurgeryState {
	next := state
	next.Surgeries = slices.Clone(state.Surgeries)
	next.Surgeries[idx] = surgery
	return next
}

func indexOfSurgery(surgeries []Surgery, id string) int {
	return slices.IndexFunc(surgeries, func(s Surgery) bool { return s.ID == id })
}

func cloneSurgery(s Surgery) Surgery {
	s.Surgeons = slices.Clone(s.Surgeons)
	s.Nurses = slices.Clone(s.Nurses)
	s.MaterialRequests = slices.Clone(s.MaterialRequests)
	s.SterilizationRequests = slices.Clone(s.SterilizationRequests)
	return s
}

func cloneSurgeryType(t SurgeryType) SurgeryType {
	t.RequiredEquipment = slices.Clone(t.RequiredEquipment)
	t.PreOpRequirements = slices.Clone(t.PreOpRequirements)
	t.PostOpRequirements = slices.Clone(t.PostOpRequirements)
	t.SterilizationRequirements = slices.Clone(t.SterilizationRequirements)
	return t
}

func surgeryTypeFromInput(id string, input SurgeryTypeInput) SurgeryType {
	return SurgeryType{
		ID:                        id,
		Name:                      strings.TrimSpace(input.Name),
		Description:               input.Description,
		EstimatedDuration:         input.EstimatedDuration,
		RequiredEquipment:         nonEmpty(input.RequiredEquipment),
		RequiredStaff:             input.RequiredStaff,
		PreOpRequirements:         nonEmpty(input.PreOpRequirements),
		PostOpRequirements:        nonEmpty(input.PostOpRequirements),
		SterilizationRequirements: nonEmpty(input.SterilizationRequirements),
	}
}

// nonEmpty trims values and drops blanks, preserving order.
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
