package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/or-admin/internal/store"
)

func newTestSurgeryService(t *testing.T) (*SurgeryService, *ActivityLog, *metricsStub) {
	t.Helper()
	clock := newFakeClock(referenceTime)
	activities := NewActivityLog(nil, sequentialIDs("activity"), clock.Now, 0)
	metrics := newMetricsStub()
	svc := NewSurgeryServiceWithLogger(store.New(SurgeryState{}), activities, sequentialIDs("surgery"), clock.Now, nil, metrics)
	return svc, activities, metrics
}

func surgeryInput(room, date, start, end string) SurgeryInput {
	return SurgeryInput{
		PatientID:        "patient-1",
		SurgeryTypeID:    "type-appendectomy",
		ScheduledDate:    date,
		StartTime:        start,
		EndTime:          end,
		OperatingRoom:    room,
		Surgeons:         []string{"Dr. Sato"},
		Anesthesiologist: "Dr. Ito",
	}
}

func TestSurgeryService_ScheduleSurgery(t *testing.T) {
	svc, activities, metrics := newTestSurgeryService(t)
	ctx := ContextWithActor(context.Background(), "coordinator")

	surgery, err := svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "09:00", "11:00"))
	if err != nil {
		t.Fatalf("ScheduleSurgery returned error: %v", err)
	}
	if surgery.ID != "surgery-1" {
		t.Fatalf("expected id surgery-1, got %q", surgery.ID)
	}
	if surgery.Status != SurgeryStatusScheduled {
		t.Fatalf("expected scheduled status, got %q", surgery.Status)
	}
	if !surgery.UpdatedAt.Equal(referenceTime) {
		t.Fatalf("expected UpdatedAt %v, got %v", referenceTime, surgery.UpdatedAt)
	}

	entries := activities.List(ctx, "")
	if len(entries) != 1 || entries[0].Action != "Surgery Scheduled" || entries[0].User != "coordinator" {
		t.Fatalf("unexpected activity entries: %+v", entries)
	}
	if metrics.operations["schedule/success"] != 1 {
		t.Fatalf("expected schedule success metric, got %+v", metrics.operations)
	}
}

func TestSurgeryService_ScheduleSurgeryConflicts(t *testing.T) {
	tests := []struct {
		name      string
		candidate SurgeryInput
		wantErr   error
	}{
		{
			name:      "partial overlap",
			candidate: surgeryInput("OR-1", "2024-03-05", "10:00", "12:00"),
			wantErr:   ErrSchedulingConflict,
		},
		{
			name:      "adjacent slot",
			candidate: surgeryInput("OR-1", "2024-03-05", "11:00", "12:00"),
		},
		{
			name:      "other room",
			candidate: surgeryInput("OR-2", "2024-03-05", "09:30", "10:30"),
		},
		{
			name:      "containing slot",
			candidate: surgeryInput("OR-1", "2024-03-05", "08:00", "12:00"),
			wantErr:   ErrSchedulingConflict,
		},
		{
			name:      "inverted range",
			candidate: surgeryInput("OR-1", "2024-03-05", "14:00", "13:00"),
			wantErr:   ErrInvalidTimeRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestSurgeryService(t)
			ctx := context.Background()
			if _, err := svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "09:00", "11:00")); err != nil {
				t.Fatalf("seed: %v", err)
			}

			_, err := svc.ScheduleSurgery(ctx, tt.candidate)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			list, _ := svc.ListSurgeries(ctx, SurgeryFilter{})
			if len(list) != 1 {
				t.Fatalf("rejected surgery must not be stored, got %d surgeries", len(list))
			}
		})
	}
}

func TestSurgeryService_ScheduleSurgeryValidation(t *testing.T) {
	svc, _, _ := newTestSurgeryService(t)

	_, err := svc.ScheduleSurgery(context.Background(), SurgeryInput{StartTime: "9:00"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"patient_id", "surgery_type_id", "operating_room", "surgeons", "scheduled_date", "start_time", "end_time"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected field error for %s, got %+v", field, vErr.FieldErrors)
		}
	}
	if ErrorKind(err) != "validation" {
		t.Fatalf("expected validation kind, got %q", ErrorKind(err))
	}
}

func TestSurgeryService_CancelledSurgeryFreesSlot(t *testing.T) {
	svc, _, _ := newTestSurgeryService(t)
	ctx := context.Background()

	first, err := svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "09:00", "11:00"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.CancelSurgery(ctx, first.ID, "  "); err == nil {
		t.Fatal("expected blank reason to be rejected")
	}

	cancelled, err := svc.CancelSurgery(ctx, first.ID, "patient unwell")
	if err != nil {
		t.Fatalf("CancelSurgery returned error: %v", err)
	}
	if cancelled.Status != SurgeryStatusCancelled || cancelled.CancellationReason != "patient unwell" {
		t.Fatalf("unexpected cancelled surgery: %+v", cancelled)
	}

	if _, err := svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "09:30", "10:30")); err != nil {
		t.Fatalf("expected slot to be free after cancellation, got %v", err)
	}

	if _, err := svc.CancelSurgery(ctx, first.ID, "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSurgeryService_UpdateSurgery(t *testing.T) {
	svc, _, _ := newTestSurgeryService(t)
	ctx := context.Background()

	first, _ := svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "09:00", "11:00"))
	second, _ := svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "13:00", "14:00"))

	shifted := "10:00"
	updated, err := svc.UpdateSurgery(ctx, first.ID, SurgeryPatch{StartTime: &shifted})
	if err != nil {
		t.Fatalf("moving within its own slot must not conflict with itself: %v", err)
	}
	if updated.StartTime != "10:00" || updated.EndTime != "11:00" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	start, end := "10:30", "13:30"
	if _, err := svc.UpdateSurgery(ctx, second.ID, SurgeryPatch{StartTime: &start, EndTime: &end}); !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	notes := "bring extra retractors"
	if _, err := svc.UpdateSurgery(ctx, second.ID, SurgeryPatch{Notes: &notes}); err != nil {
		t.Fatalf("notes-only update failed: %v", err)
	}

	if _, err := svc.UpdateSurgery(ctx, "missing", SurgeryPatch{Notes: &notes}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSurgeryService_Lifecycle(t *testing.T) {
	svc, _, _ := newTestSurgeryService(t)
	ctx := context.Background()

	surgery, _ := svc.ScheduleSurgery(ctx, surgeryInput("OR-3", "2024-03-05", "09:00", "10:00"))

	if _, err := svc.CompleteSurgery(ctx, surgery.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected complete from scheduled to fail, got %v", err)
	}
	if _, err := svc.StartSurgery(ctx, surgery.ID); err != nil {
		t.Fatalf("StartSurgery: %v", err)
	}
	completed, err := svc.CompleteSurgery(ctx, surgery.ID)
	if err != nil {
		t.Fatalf("CompleteSurgery: %v", err)
	}
	if completed.Status != SurgeryStatusCompleted {
		t.Fatalf("expected completed, got %q", completed.Status)
	}
	if _, err := svc.CancelSurgery(ctx, surgery.ID, "too late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected completed surgery to reject cancellation, got %v", err)
	}
}

func TestSurgeryService_ListSurgeries(t *testing.T) {
	svc, _, _ := newTestSurgeryService(t)
	ctx := context.Background()

	_, _ = svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-06", "08:00", "09:00"))
	_, _ = svc.ScheduleSurgery(ctx, surgeryInput("OR-2", "2024-03-05", "13:00", "14:00"))
	_, _ = svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "07:00", "08:00"))

	all, err := svc.ListSurgeries(ctx, SurgeryFilter{})
	if err != nil {
		t.Fatalf("ListSurgeries: %v", err)
	}
	var order []string
	for _, s := range all {
		order = append(order, s.ID)
	}
	if got := strings.Join(order, ","); got != "surgery-3,surgery-2,surgery-1" {
		t.Fatalf("unexpected order %s", got)
	}

	byRoom, _ := svc.ListSurgeries(ctx, SurgeryFilter{Room: "OR-1", Date: "2024-03-05"})
	if len(byRoom) != 1 || byRoom[0].ID != "surgery-3" {
		t.Fatalf("unexpected filter result: %+v", byRoom)
	}

	if _, err := svc.ListSurgeries(ctx, SurgeryFilter{Status: "postponed"}); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}
}

func TestSurgeryService_SurgeryTypes(t *testing.T) {
	svc, _, _ := newTestSurgeryService(t)
	ctx := context.Background()

	if _, err := svc.AddSurgeryType(ctx, SurgeryTypeInput{Name: "Bypass"}); err == nil {
		t.Fatal("expected missing duration to be rejected")
	}

	bypass, err := svc.AddSurgeryType(ctx, SurgeryTypeInput{Name: "Bypass", EstimatedDuration: 240})
	if err != nil {
		t.Fatalf("AddSurgeryType: %v", err)
	}
	_, _ = svc.AddSurgeryType(ctx, SurgeryTypeInput{Name: "Appendectomy", EstimatedDuration: 60})

	types, _ := svc.ListSurgeryTypes(ctx)
	if len(types) != 2 || types[0].Name != "Appendectomy" {
		t.Fatalf("expected types sorted by name, got %+v", types)
	}

	// Once types exist, surgeries must reference one of them.
	if _, err := svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "09:00", "10:00")); err == nil {
		t.Fatal("expected unknown surgery type to be rejected")
	}
	input := surgeryInput("OR-1", "2024-03-05", "09:00", "10:00")
	input.SurgeryTypeID = bypass.ID
	if _, err := svc.ScheduleSurgery(ctx, input); err != nil {
		t.Fatalf("ScheduleSurgery with known type: %v", err)
	}

	renamed, err := svc.UpdateSurgeryType(ctx, bypass.ID, SurgeryTypeInput{Name: "CABG", EstimatedDuration: 300})
	if err != nil || renamed.Name != "CABG" {
		t.Fatalf("UpdateSurgeryType: %+v, %v", renamed, err)
	}
	if err := svc.DeleteSurgeryType(ctx, bypass.ID); err != nil {
		t.Fatalf("DeleteSurgeryType: %v", err)
	}
	if err := svc.DeleteSurgeryType(ctx, bypass.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSurgeryService_UpdateKeepsReferenceToDeletedType(t *testing.T) {
	svc, _, _ := newTestSurgeryService(t)
	ctx := context.Background()

	first, _ := svc.AddSurgeryType(ctx, SurgeryTypeInput{Name: "Bypass", EstimatedDuration: 240})
	input := surgeryInput("OR-1", "2024-03-05", "09:00", "10:00")
	input.SurgeryTypeID = first.ID
	surgery, err := svc.ScheduleSurgery(ctx, input)
	if err != nil {
		t.Fatalf("ScheduleSurgery: %v", err)
	}
	second, _ := svc.AddSurgeryType(ctx, SurgeryTypeInput{Name: "Appendectomy", EstimatedDuration: 60})
	if err := svc.DeleteSurgeryType(ctx, first.ID); err != nil {
		t.Fatalf("DeleteSurgeryType: %v", err)
	}

	notes := "patient fasting since midnight"
	updated, err := svc.UpdateSurgery(ctx, surgery.ID, SurgeryPatch{Notes: &notes})
	if err != nil {
		t.Fatalf("notes-only update must not re-check the surgery type: %v", err)
	}
	if updated.Notes != notes || updated.SurgeryTypeID != first.ID {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	stale := first.ID
	var vErr *ValidationError
	if _, err := svc.UpdateSurgery(ctx, surgery.ID, SurgeryPatch{SurgeryTypeID: &stale}); !errors.As(err, &vErr) || vErr.FieldErrors["surgery_type_id"] == "" {
		t.Fatalf("setting a removed type must be rejected, got %v", err)
	}
	current := second.ID
	if _, err := svc.UpdateSurgery(ctx, surgery.ID, SurgeryPatch{SurgeryTypeID: &current}); err != nil {
		t.Fatalf("switching to a registered type: %v", err)
	}
}

func TestSurgeryService_DefaultIDs(t *testing.T) {
	svc := NewSurgeryService(store.New(SurgeryState{}), nil, nil, nil)
	ctx := context.Background()

	first, err := svc.ScheduleSurgery(ctx, surgeryInput("OR-1", "2024-03-05", "09:00", "10:00"))
	if err != nil {
		t.Fatalf("ScheduleSurgery: %v", err)
	}
	second, err := svc.ScheduleSurgery(ctx, surgeryInput("OR-2", "2024-03-05", "09:00", "10:00"))
	if err != nil {
		t.Fatalf("ScheduleSurgery: %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct generated ids, got %q and %q", first.ID, second.ID)
	}
}

func TestSurgeryService_NilReceiver(t *testing.T) {
	var svc *SurgeryService
	if _, err := svc.ScheduleSurgery(context.Background(), SurgeryInput{}); err == nil {
		t.Fatal("expected error from nil service")
	}
}
