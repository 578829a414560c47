package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/loom/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("Second Migrate failed: %v", err)
	}
}

func TestRecordSingleAndList(t *testing.T) {
	db := openTestDB(t)

	result := &models.ExecutionResult{
		TaskID:      "t1",
		Output:      "done",
		Success:     true,
		Duration:    2 * time.Second,
		Backend:     "anthropic",
		Tier:        models.TierPreferred,
		CompletedAt: time.Now(),
	}
	it := models.Intent{Mode: models.ModeBackend, TaskType: "analysis"}
	if err := db.RecordSingle("run1", "analyze this function", it, result); err != nil {
		t.Fatalf("RecordSingle failed: %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Kind != RunKindSingle {
		t.Errorf("Expected single kind, got %s", run.Kind)
	}
	if run.Succeeded != 1 || run.Failed != 0 {
		t.Errorf("Expected 1/0 counts, got %d/%d", run.Succeeded, run.Failed)
	}
	if run.TaskType != "analysis" {
		t.Errorf("Expected analysis task type, got %s", run.TaskType)
	}
}

func TestRecordBatchAndFetch(t *testing.T) {
	db := openTestDB(t)

	now := time.Now()
	tasks := []*models.SubTask{
		{ID: "a", Prompt: "implement user management"},
		{ID: "b", Prompt: "implement order handling"},
	}
	batch := &models.BatchResult{
		BatchID:   "batch1",
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Partial:   true,
		StartedAt: now,
		Duration:  5 * time.Second,
		Results: []*models.ExecutionResult{
			{TaskID: "a", Success: true, Backend: "anthropic", Tier: models.TierPreferred, Duration: time.Second, CompletedAt: now.Add(time.Second)},
			{TaskID: "b", Success: false, Error: models.NewExecutionError(models.ErrKindTimeout, "deadline"), Duration: 4 * time.Second, CompletedAt: now.Add(4 * time.Second)},
		},
	}

	it := models.Intent{Mode: models.ModeBackend, TaskType: "development"}
	if err := db.RecordBatch("implement user and order handling", it, batch, tasks); err != nil {
		t.Fatalf("RecordBatch failed: %v", err)
	}

	run, err := db.GetRun("batch1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run == nil {
		t.Fatal("Expected run, got nil")
	}
	if !run.Partial {
		t.Error("Expected partial run")
	}

	records, err := db.ListTaskRecords("batch1")
	if err != nil {
		t.Fatalf("ListTaskRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 task records, got %d", len(records))
	}
	// Ordered by completion time.
	if records[0].TaskID != "a" || records[1].TaskID != "b" {
		t.Errorf("Expected completion order a,b, got %s,%s", records[0].TaskID, records[1].TaskID)
	}
	if records[0].Prompt != "implement user management" {
		t.Errorf("Expected prompt stored, got %q", records[0].Prompt)
	}
	if records[1].ErrorKind != string(models.ErrKindTimeout) {
		t.Errorf("Expected timeout error kind, got %q", records[1].ErrorKind)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := openTestDB(t)
	run, err := db.GetRun("missing")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run != nil {
		t.Error("Expected nil for missing run")
	}
}

func TestPurgeOldRuns(t *testing.T) {
	db := openTestDB(t)

	old := &models.ExecutionResult{
		TaskID:      "t1",
		Success:     true,
		Duration:    time.Second,
		CompletedAt: time.Now().Add(-48 * time.Hour),
	}
	if err := db.RecordSingle("old-run", "old request", models.DefaultIntent(), old); err != nil {
		t.Fatal(err)
	}
	recent := &models.ExecutionResult{
		TaskID:      "t2",
		Success:     true,
		Duration:    time.Second,
		CompletedAt: time.Now(),
	}
	if err := db.RecordSingle("new-run", "new request", models.DefaultIntent(), recent); err != nil {
		t.Fatal(err)
	}

	purged, err := db.PurgeOldRuns(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldRuns failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected 1 purged run, got %d", purged)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "new-run" {
		t.Errorf("Expected only new-run to remain, got %v", runs)
	}
}
