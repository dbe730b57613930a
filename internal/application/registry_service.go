package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// AddPatient registers a patient that surgeries can reference.
func (s *SurgeryService) AddPatient(ctx context.Context, input PatientInput) (patient Patient, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}
	logger := s.loggerWith(ctx, "AddPatient", "mrn", input.MRN)
	defer func() {
		s.finish(ctx, logger, "add_patient", err, "patient added", "patient_id", patient.ID)
	}()

	candidate := patientFromInput(s.idGenerator(), input)
	if _, err = s.state.Dispatch(addPatientReducer(candidate)); err != nil {
		return
	}
	patient = candidate
	s.record(ctx, "Patient Registered", patient.ID, patient.MRN, ActivitySeverityInfo)
	return
}

// UpdatePatient replaces the fields of a registered patient.
func (s *SurgeryService) UpdatePatient(ctx context.Context, id string, input PatientInput) (patient Patient, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}
	logger := s.loggerWith(ctx, "UpdatePatient", "patient_id", id)
	defer func() {
		s.finish(ctx, logger, "update_patient", err, "patient updated")
	}()

	if _, err = s.state.Dispatch(updatePatientReducer(id, input)); err != nil {
		return
	}
	patient = patientFromInput(id, input)
	return
}

// DeletePatient removes a patient. Surgeries that reference it are kept.
func (s *SurgeryService) DeletePatient(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("SurgeryService is nil")
	}
	logger := s.loggerWith(ctx, "DeletePatient", "patient_id", id)
	defer func() {
		s.finish(ctx, logger, "delete_patient", err, "patient deleted")
	}()

	if _, err = s.state.Dispatch(deletePatientReducer(id)); err != nil {
		return
	}
	s.record(ctx, "Patient Removed", id, "", ActivitySeverityWarning)
	return
}

// GetPatient returns a registered patient.
func (s *SurgeryService) GetPatient(ctx context.Context, id string) (Patient, error) {
	if s == nil {
		return Patient{}, fmt.Errorf("SurgeryService is nil")
	}
	patients := s.state.State().Patients
	idx := indexOfPatient(patients, id)
	if idx < 0 {
		return Patient{}, ErrNotFound
	}
	return patients[idx], nil
}

// ListPatients returns registered patients ordered by last name, first name and id.
func (s *SurgeryService) ListPatients(ctx context.Context) ([]Patient, error) {
	if s == nil {
		return nil, fmt.Errorf("SurgeryService is nil")
	}
	out := slices.Clone(s.state.State().Patients)
	if out == nil {
		out = []Patient{}
	}
	slices.SortStableFunc(out, func(a, b Patient) int {
		if c := strings.Compare(a.LastName, b.LastName); c != 0 {
			return c
		}
		if c := strings.Compare(a.FirstName, b.FirstName); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// AddStaffMember registers a person who can be assigned to surgeries.
func (s *SurgeryService) AddStaffMember(ctx context.Context, input StaffInput) (member StaffMember, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}
	logger := s.loggerWith(ctx, "AddStaffMember", "role", input.Role)
	defer func() {
		s.finish(ctx, logger, "add_staff", err, "staff member added", "staff_id", member.ID)
	}()

	candidate := staffFromInput(s.idGenerator(), input)
	if _, err = s.state.Dispatch(addStaffReducer(candidate)); err != nil {
		return
	}
	member = candidate
	return
}

// UpdateStaffMember replaces the fields of a staff member. Setting a status
// other than active stops new assignments without touching booked surgeries.
func (s *SurgeryService) UpdateStaffMember(ctx context.Context, id string, input StaffInput) (member StaffMember, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}
	logger := s.loggerWith(ctx, "UpdateStaffMember", "staff_id", id)
	defer func() {
		s.finish(ctx, logger, "update_staff", err, "staff member updated")
	}()

	if _, err = s.state.Dispatch(updateStaffReducer(id, input)); err != nil {
		return
	}
	member = staffFromInput(id, input)
	return
}

// DeleteStaffMember removes a staff member.
func (s *SurgeryService) DeleteStaffMember(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("SurgeryService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteStaffMember", "staff_id", id)
	defer func() {
		s.finish(ctx, logger, "delete_staff", err, "staff member deleted")
	}()

	_, err = s.state.Dispatch(deleteStaffReducer(id))
	return
}

// ListStaff returns staff members, optionally restricted to role, ordered by name and id.
func (s *SurgeryService) ListStaff(ctx context.Context, role StaffRole) ([]StaffMember, error) {
	if s == nil {
		return nil, fmt.Errorf("SurgeryService is nil")
	}
	if role != "" && !role.Valid() {
		vErr := &ValidationError{}
		vErr.add("role", "role is invalid")
		return nil, vErr
	}

	out := make([]StaffMember, 0)
	for _, member := range s.state.State().Staff {
		if role != "" && member.Role != role {
			continue
		}
		out = append(out, member)
	}
	slices.SortStableFunc(out, func(a, b StaffMember) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}
