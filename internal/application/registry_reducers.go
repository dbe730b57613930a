package application

import (
	"slices"
	"strings"

	"github.com/example/or-admin/internal/scheduler"
	"github.com/example/or-admin/internal/store"
)

func addPatientReducer(patient Patient) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		if err := validatePatient(patient, state.Patients); err != nil {
			return state, err
		}
		next := state
		next.Patients = append(slices.Clip(state.Patients), patient)
		return next, nil
	}
}

func updatePatientReducer(id string, input PatientInput) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		idx := indexOfPatient(state.Patients, id)
		if idx < 0 {
			return state, ErrNotFound
		}
		updated := patientFromInput(id, input)
		if err := validatePatient(updated, state.Patients); err != nil {
			return state, err
		}
		next := state
		next.Patients = slices.Clone(state.Patients)
		next.Patients[idx] = updated
		return next, nil
	}
}

func deletePatientReducer(id string) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		idx := indexOfPatient(state.Patients, id)
		if idx < 0 {
			return state, ErrNotFound
		}
		next := state
		next.Patients = slices.Delete(slices.Clone(state.Patients), idx, idx+1)
		return next, nil
	}
}

func addStaffReducer(member StaffMember) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		if err := validateStaff(member); err != nil {
			return state, err
		}
		next := state
		next.Staff = append(slices.Clip(state.Staff), member)
		return next, nil
	}
}

func updateStaffReducer(id string, input StaffInput) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		idx := indexOfStaff(state.Staff, id)
		if idx < 0 {
			return state, ErrNotFound
		}
		updated := staffFromInput(id, input)
		if err := validateStaff(updated); err != nil {
			return state, err
		}
		next := state
		next.Staff = slices.Clone(state.Staff)
		next.Staff[idx] = updated
		return next, nil
	}
}

func deleteStaffReducer(id string) store.Reducer[SurgeryState] {
	return func(state SurgeryState) (SurgeryState, error) {
		idx := indexOfStaff(state.Staff, id)
		if idx < 0 {
			return state, ErrNotFound
		}
		next := state
		next.Staff = slices.Delete(slices.Clone(state.Staff), idx, idx+1)
		return next, nil
	}
}

// validatePatient checks required fields and that the MRN is not used by
// another patient.
func validatePatient(patient Patient, existing []Patient) error {
	vErr := &ValidationError{}
	if patient.MRN == "" {
		vErr.add("mrn", "medical record number is required")
	} else if slices.ContainsFunc(existing, func(p Patient) bool {
		return p.ID != patient.ID && strings.EqualFold(p.MRN, patient.MRN)
	}) {
		vErr.add("mrn", "medical record number is already registered")
	}
	if patient.FirstName == "" {
		vErr.add("first_name", "first name is required")
	}
	if patient.LastName == "" {
		vErr.add("last_name", "last name is required")
	}
	if patient.DateOfBirth != "" {
		if _, err := scheduler.ParseDate(patient.DateOfBirth); err != nil {
			vErr.add("date_of_birth", "date of birth must be YYYY-MM-DD")
		}
	}
	if !patient.Status.Valid() {
		vErr.add("status", "status is invalid")
	}
	return vErr.orNil()
}

func validateStaff(member StaffMember) error {
	vErr := &ValidationError{}
	if member.Name == "" {
		vErr.add("name", "name is required")
	}
	if !member.Role.Valid() {
		vErr.add("role", "role is invalid")
	}
	if !member.Status.Valid() {
		vErr.add("status", "status is invalid")
	}
	return vErr.orNil()
}

func patientFromInput(id string, input PatientInput) Patient {
	status := input.Status
	if status == "" {
		status = PatientStatusActive
	}
	return Patient{
		ID:            id,
		MRN:           strings.TrimSpace(input.MRN),
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		DateOfBirth:   strings.TrimSpace(input.DateOfBirth),
		Gender:        strings.TrimSpace(input.Gender),
		ContactNumber: strings.TrimSpace(input.ContactNumber),
		Status:        status,
	}
}

func staffFromInput(id string, input StaffInput) StaffMember {
	status := input.Status
	if status == "" {
		status = StaffStatusActive
	}
	return StaffMember{
		ID:             id,
		Name:           strings.TrimSpace(input.Name),
		Role:           input.Role,
		Specialization: strings.TrimSpace(input.Specialization),
		Department:     strings.TrimSpace(input.Department),
		Status:         status,
	}
}

func indexOfPatient(patients []Patient, id string) int {
	return slices.IndexFunc(patients, func(p Patient) bool { return p.ID == id })
}

func indexOfStaff(staff []StaffMember, id string) int {
	return slices.IndexFunc(staff, func(m StaffMember) bool { return m.ID == id })
}
