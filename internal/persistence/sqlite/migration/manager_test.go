package migration

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"
)

type executorStub struct {
	applied    []AppliedMigration
	executed   []string
	executeErr map[string]error
	initErr    error
}

func (e *executorStub) InitializeVersionTable(ctx context.Context) error {
	return e.initErr
}

func (e *executorStub) ExecuteMigration(ctx context.Context, migration Migration, appliedAt time.Time) error {
	if err := e.executeErr[migration.Version]; err != nil {
		return err
	}
	e.executed = append(e.executed, migration.Version)
	e.applied = append(e.applied, AppliedMigration{Version: migration.Version, Checksum: migration.Checksum, AppliedAt: appliedAt})
	return nil
}

func (e *executorStub) AppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	return e.applied, nil
}

func testSource() *Scanner {
	return NewScanner(fstest.MapFS{
		"m/001_first.sql":  {Data: []byte("CREATE TABLE a (id TEXT);")},
		"m/002_second.sql": {Data: []byte("CREATE TABLE b (id TEXT);")},
		"m/003_third.sql":  {Data: []byte("CREATE TABLE c (id TEXT);")},
	}, "m")
}

func TestManager_RunAppliesPendingInOrder(t *testing.T) {
	source := testSource()
	all, _ := source.Scan()
	executor := &executorStub{applied: []AppliedMigration{{Version: "001", Checksum: all[0].Checksum}}}

	manager := NewManager(source, executor, nil)
	if err := manager.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(executor.executed) != 2 || executor.executed[0] != "002" || executor.executed[1] != "003" {
		t.Fatalf("unexpected execution order: %v", executor.executed)
	}

	executor.executed = nil
	if err := manager.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(executor.executed) != 0 {
		t.Fatalf("second run must be a no-op, executed %v", executor.executed)
	}
}

func TestManager_RunStopsAtFirstFailure(t *testing.T) {
	executor := &executorStub{executeErr: map[string]error{"002": errors.New("syntax error")}}

	err := NewManager(testSource(), executor, nil).Run(context.Background())
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}
	if len(executor.executed) != 1 || executor.executed[0] != "001" {
		t.Fatalf("expected only 001 to run, got %v", executor.executed)
	}
}

func TestManager_PendingDetectsEditedMigration(t *testing.T) {
	executor := &executorStub{applied: []AppliedMigration{{Version: "001", Checksum: "stale"}}}

	_, err := NewManager(testSource(), executor, nil).Pending(context.Background())
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestManager_PendingInitFailure(t *testing.T) {
	executor := &executorStub{initErr: errors.New("readonly database")}
	if _, err := NewManager(testSource(), executor, nil).Pending(context.Background()); err == nil {
		t.Fatal("expected initialisation failure")
	}
}
