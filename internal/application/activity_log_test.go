package application

import (
	"context"
	"fmt"
	"testing"
)

func TestActivityLog_RecordNewestFirst(t *testing.T) {
	clock := newFakeClock(referenceTime)
	log := NewActivityLog(nil, sequentialIDs("activity"), clock.Now, 0)
	ctx := ContextWithActor(context.Background(), "Dr. Sato")

	log.Record(ctx, ActivityInput{Action: "Surgery Scheduled", Target: "surgery-1"})
	entry := log.Record(ctx, ActivityInput{Action: "Surgery Cancelled", Target: "surgery-1", Severity: ActivitySeverityWarning, User: "admin"})

	if entry.ID != "activity-2" || entry.User != "admin" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	entries := log.List(ctx, "")
	if len(entries) != 2 || entries[0].Action != "Surgery Cancelled" {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if entries[1].User != "Dr. Sato" || entries[1].Severity != ActivitySeverityInfo {
		t.Fatalf("expected actor and info defaults, got %+v", entries[1])
	}
	if warnings := log.List(ctx, ActivitySeverityWarning); len(warnings) != 1 {
		t.Fatalf("expected one warning entry, got %d", len(warnings))
	}
}

func TestActivityLog_Capacity(t *testing.T) {
	log := NewActivityLog(nil, sequentialIDs("activity"), newFakeClock(referenceTime).Now, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		log.Record(ctx, ActivityInput{Action: fmt.Sprintf("action-%d", i)})
	}

	entries := log.List(ctx, "")
	if len(entries) != 3 {
		t.Fatalf("expected capacity of 3, got %d", len(entries))
	}
	if entries[0].Action != "action-4" || entries[2].Action != "action-2" {
		t.Fatalf("expected the oldest entries to be dropped, got %+v", entries)
	}

	log.Clear(ctx)
	if len(log.List(ctx, "")) != 0 {
		t.Fatal("expected empty log after Clear")
	}
}

func TestActivityLog_DefaultActor(t *testing.T) {
	log := NewActivityLog(nil, nil, nil, 0)
	entry := log.Record(context.Background(), ActivityInput{Action: "Settings Changed"})
	if entry.User != "System" {
		t.Fatalf("expected System actor, got %q", entry.User)
	}
}

func TestActivityLog_DefaultIDs(t *testing.T) {
	log := NewActivityLog(nil, nil, nil, 0)
	ctx := context.Background()

	first := log.Record(ctx, ActivityInput{Action: "Settings Changed"})
	second := log.Record(ctx, ActivityInput{Action: "Settings Changed"})
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct generated ids, got %q and %q", first.ID, second.ID)
	}
}
