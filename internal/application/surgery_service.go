package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/example/or-admin/internal/ids"
	"github.com/example/or-admin/internal/store"
)

// SurgeryService orchestrates validation, conflict detection and state
// updates for surgeries and surgery types.
type SurgeryService struct {
	state       *store.Store[SurgeryState]
	activities  *ActivityLog
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	metrics     Metrics
}

// NewSurgeryService wires dependencies for surgery operations.
func NewSurgeryService(state *store.Store[SurgeryState], activities *ActivityLog, idGenerator func() string, now func() time.Time) *SurgeryService {
	return NewSurgeryServiceWithLogger(state, activities, idGenerator, now, nil, nil)
}

// NewSurgeryServiceWithLogger wires dependencies including logging and metrics.
func NewSurgeryServiceWithLogger(state *store.Store[SurgeryState], activities *ActivityLog, idGenerator func() string, now func() time.Time, logger *slog.Logger, metrics Metrics) *SurgeryService {
	if state == nil {
		state = store.New(SurgeryState{})
	}
	if idGenerator == nil {
		idGenerator = ids.NewUUID
	}
	if now == nil {
		now = time.Now
	}
	return &SurgeryService{
		state:       state,
		activities:  activities,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		metrics:     defaultMetrics(metrics),
	}
}

func (s *SurgeryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SurgeryService", operation, attrs...)
}

// finish logs and counts the outcome of a mutating operation.
func (s *SurgeryService) finish(ctx context.Context, logger *slog.Logger, operation string, err error, success string, attrs ...any) {
	s.metrics.ObserveSurgeryOperation(operation, outcomeLabel(err))
	if err != nil {
		logger.ErrorContext(ctx, operation+" failed", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.With(attrs...).InfoContext(ctx, success)
}

// ScheduleSurgery books a new surgery. It fails with ErrSchedulingConflict
// when the operating room is already taken for any part of the requested
// interval, leaving the surgery list unchanged.
func (s *SurgeryService) ScheduleSurgery(ctx context.Context, input SurgeryInput) (surgery Surgery, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ScheduleSurgery",
		"operating_room", input.OperatingRoom,
		"scheduled_date", input.ScheduledDate,
	)
	defer func() {
		s.finish(ctx, logger, "schedule", err, "surgery scheduled", "surgery_id", surgery.ID)
	}()

	candidate := Surgery{
		ID:                    s.idGenerator(),
		PatientID:             strings.TrimSpace(input.PatientID),
		SurgeryTypeID:         strings.TrimSpace(input.SurgeryTypeID),
		ScheduledDate:         strings.TrimSpace(input.ScheduledDate),
		StartTime:             strings.TrimSpace(input.StartTime),
		EndTime:               strings.TrimSpace(input.EndTime),
		OperatingRoom:         strings.TrimSpace(input.OperatingRoom),
		Status:                SurgeryStatusScheduled,
		Surgeons:              nonEmpty(input.Surgeons),
		Nurses:                nonEmpty(input.Nurses),
		Anesthesiologist:      strings.TrimSpace(input.Anesthesiologist),
		Notes:                 input.Notes,
		MaterialRequests:      nonEmpty(input.MaterialRequests),
		SterilizationRequests: nonEmpty(input.SterilizationRequests),
		UpdatedAt:             s.now(),
	}

	if _, err = s.state.Dispatch(scheduleSurgeryReducer(candidate)); err != nil {
		s.record(ctx, "Surgery Scheduling Rejected", candidate.OperatingRoom, err.Error(), ActivitySeverityWarning)
		return
	}

	surgery = cloneSurgery(candidate)
	s.record(ctx, "Surgery Scheduled", surgery.ID,
		fmt.Sprintf("%s %s %s-%s", surgery.OperatingRoom, surgery.ScheduledDate, surgery.StartTime, surgery.EndTime),
		ActivitySeverityInfo)
	return
}

// UpdateSurgery applies a partial update and refreshes UpdatedAt.
func (s *SurgeryService) UpdateSurgery(ctx context.Context, id string, patch SurgeryPatch) (surgery Surgery, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSurgery", "surgery_id", id)
	defer func() {
		s.finish(ctx, logger, "update", err, "surgery updated")
	}()

	var next SurgeryState
	if next, err = s.state.Dispatch(updateSurgeryReducer(id, patch, s.now())); err != nil {
		return
	}
	surgery = findSurgery(next, id)
	s.record(ctx, "Surgery Updated", id, "", ActivitySeverityInfo)
	return
}

// CancelSurgery marks a surgery cancelled with the supplied reason. Cancelled
// surgeries stop blocking their operating room slot.
func (s *SurgeryService) CancelSurgery(ctx context.Context, id, reason string) (surgery Surgery, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CancelSurgery", "surgery_id", id)
	defer func() {
		s.finish(ctx, logger, "cancel", err, "surgery cancelled")
	}()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		vErr := &ValidationError{}
		vErr.add("reason", "cancellation reason is required")
		err = vErr
		return
	}

	surgery, err = s.transition(id, SurgeryStatusCancelled, reason)
	if err == nil {
		s.record(ctx, "Surgery Cancelled", id, reason, ActivitySeverityWarning)
	}
	return
}

// StartSurgery moves a scheduled surgery into progress.
func (s *SurgeryService) StartSurgery(ctx context.Context, id string) (surgery Surgery, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}
	logger := s.loggerWith(ctx, "StartSurgery", "surgery_id", id)
	defer func() {
		s.finish(ctx, logger, "start", err, "surgery started")
	}()

	surgery, err = s.transition(id, SurgeryStatusInProgress, "")
	if err == nil {
		s.record(ctx, "Surgery Started", id, "", ActivitySeverityInfo)
	}
	return
}

// CompleteSurgery closes a surgery that is in progress.
func (s *SurgeryService) CompleteSurgery(ctx context.Context, id string) (surgery Surgery, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}
	logger := s.loggerWith(ctx, "CompleteSurgery", "surgery_id", id)
	defer func() {
		s.finish(ctx, logger, "complete", err, "surgery completed")
	}()

	surgery, err = s.transition(id, SurgeryStatusCompleted, "")
	if err == nil {
		s.record(ctx, "Surgery Completed", id, "", ActivitySeverityInfo)
	}
	return
}

func (s *SurgeryService) transition(id string, to SurgeryStatus, reason string) (Surgery, error) {
	next, err := s.state.Dispatch(transitionSurgeryReducer(id, to, reason, s.now()))
	if err != nil {
		return Surgery{}, err
	}
	return findSurgery(next, id), nil
}

// GetSurgery returns a single surgery by identifier.
func (s *SurgeryService) GetSurgery(ctx context.Context, id string) (Surgery, error) {
	if s == nil {
		return Surgery{}, fmt.Errorf("SurgeryService is nil")
	}
	state := s.state.State()
	idx := indexOfSurgery(state.Surgeries, id)
	if idx < 0 {
		return Surgery{}, ErrNotFound
	}
	return cloneSurgery(state.Surgeries[idx]), nil
}

// ListSurgeries returns surgeries matching filter ordered by date, start time and id.
func (s *SurgeryService) ListSurgeries(ctx context.Context, filter SurgeryFilter) ([]Surgery, error) {
	if s == nil {
		return nil, fmt.Errorf("SurgeryService is nil")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "status is invalid")
		return nil, vErr
	}

	state := s.state.State()
	out := make([]Surgery, 0, len(state.Surgeries))
	for _, surgery := range state.Surgeries {
		if filter.Date != "" && surgery.ScheduledDate != filter.Date {
			continue
		}
		if filter.Room != "" && surgery.OperatingRoom != filter.Room {
			continue
		}
		if filter.Status != "" && surgery.Status != filter.Status {
			continue
		}
		out = append(out, cloneSurgery(surgery))
	}

	slices.SortStableFunc(out, func(a, b Surgery) int {
		if c := strings.Compare(a.ScheduledDate, b.ScheduledDate); c != 0 {
			return c
		}
		if c := strings.Compare(a.StartTime, b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// AddSurgeryType registers a new surgery type.
func (s *SurgeryService) AddSurgeryType(ctx context.Context, input SurgeryTypeInput) (surgeryType SurgeryType, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}
	logger := s.loggerWith(ctx, "AddSurgeryType", "name", input.Name)
	defer func() {
		s.finish(ctx, logger, "add_type", err, "surgery type added", "surgery_type_id", surgeryType.ID)
	}()

	candidate := surgeryTypeFromInput(s.idGenerator(), input)
	if _, err = s.state.Dispatch(addSurgeryTypeReducer(candidate)); err != nil {
		return
	}
	surgeryType = cloneSurgeryType(candidate)
	return
}

// UpdateSurgeryType replaces the fields of an existing surgery type.
func (s *SurgeryService) UpdateSurgeryType(ctx context.Context, id string, input SurgeryTypeInput) (surgeryType SurgeryType, err error) {
	if s == nil {
		err = fmt.Errorf("SurgeryService is nil")
		return
	}
	logger := s.loggerWith(ctx, "UpdateSurgeryType", "surgery_type_id", id)
	defer func() {
		s.finish(ctx, logger, "update_type", err, "surgery type updated")
	}()

	if _, err = s.state.Dispatch(updateSurgeryTypeReducer(id, input)); err != nil {
		return
	}
	surgeryType = surgeryTypeFromInput(id, input)
	return
}

// DeleteSurgeryType removes a surgery type. Existing surgeries keep their reference.
func (s *SurgeryService) DeleteSurgeryType(ctx context.Context, id string) (err error) {
	if s == nil {
		return fmt.Errorf("SurgeryService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteSurgeryType", "surgery_type_id", id)
	defer func() {
		s.finish(ctx, logger, "delete_type", err, "surgery type deleted")
	}()

	_, err = s.state.Dispatch(deleteSurgeryTypeReducer(id))
	return
}

// ListSurgeryTypes returns the registered surgery types ordered by name.
func (s *SurgeryService) ListSurgeryTypes(ctx context.Context) ([]SurgeryType, error) {
	if s == nil {
		return nil, fmt.Errorf("SurgeryService is nil")
	}
	types := s.state.State().Types
	out := make([]SurgeryType, 0, len(types))
	for _, t := range types {
		out = append(out, cloneSurgeryType(t))
	}
	slices.SortStableFunc(out, func(a, b SurgeryType) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *SurgeryService) record(ctx context.Context, action, target, details string, severity ActivitySeverity) {
	if s.activities == nil {
		return
	}
	s.activities.Record(ctx, ActivityInput{
		Action:   action,
		User:     ActorFromContext(ctx),
		Target:   target,
		Details:  details,
		Severity: severity,
	})
}

func findSurgery(state SurgeryState, id string) Surgery {
	if idx := indexOfSurgery(state.Surgeries, id); idx >= 0 {
		return cloneSurgery(state.Surgeries[idx])
	}
	return Surgery{}
}
