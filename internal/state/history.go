package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ShayCichocki/loom/pkg/models"
)

// Run kinds recorded in history.
const (
	// RunKindSingle is a request that executed as one task.
	RunKindSingle = "single"
	// RunKindBatch is a request that executed as a task DAG.
	RunKindBatch = "batch"
)

// Run is one processed request in the history.
type Run struct {
	ID        string
	Request   string
	Kind      string
	Mode      string
	TaskType  string
	Total     int
	Succeeded int
	Failed    int
	Partial   bool
	StartedAt time.Time
	Duration  time.Duration
}

// TaskRecord is one task outcome within a run.
type TaskRecord struct {
	RunID        string
	TaskID       string
	Prompt       string
	Backend      string
	Model        string
	Tier         string
	Success      bool
	ErrorKind    string
	ErrorMessage string
	Duration     time.Duration
	CompletedAt  time.Time
}

// RecordSingle stores a single-task run and its result.
func (db *DB) RecordSingle(runID, request string, it models.Intent, result *models.ExecutionResult) error {
	run := &Run{
		ID:        runID,
		Request:   request,
		Kind:      RunKindSingle,
		Mode:      string(it.Mode),
		TaskType:  it.TaskType,
		Total:     1,
		StartedAt: result.CompletedAt.Add(-result.Duration),
		Duration:  result.Duration,
	}
	if result.Success {
		run.Succeeded = 1
	} else {
		run.Failed = 1
	}
	return db.record(run, request, []*models.ExecutionResult{result}, nil)
}

// RecordBatch stores a batch run and its per-task results. tasks supplies
// the prompts; results are matched to tasks by TaskID.
func (db *DB) RecordBatch(request string, it models.Intent, batch *models.BatchResult, tasks []*models.SubTask) error {
	run := &Run{
		ID:        batch.BatchID,
		Request:   request,
		Kind:      RunKindBatch,
		Mode:      string(it.Mode),
		TaskType:  it.TaskType,
		Total:     batch.Total,
		Succeeded: batch.Succeeded,
		Failed:    batch.Failed,
		Partial:   batch.Partial,
		StartedAt: batch.StartedAt,
		Duration:  batch.Duration,
	}
	return db.record(run, request, batch.Results, tasks)
}

func (db *DB) record(run *Run, request string, results []*models.ExecutionResult, tasks []*models.SubTask) error {
	prompts := make(map[string]string, len(tasks))
	for _, t := range tasks {
		prompts[t.ID] = t.Prompt
	}
	if run.Kind == RunKindSingle {
		for _, r := range results {
			prompts[r.TaskID] = request
		}
	}

	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, request, kind, mode, task_type, total, succeeded, failed, partial, started_at, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.Request, run.Kind, run.Mode, run.TaskType,
			run.Total, run.Succeeded, run.Failed, boolToInt(run.Partial),
			formatTime(run.StartedAt), run.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, r := range results {
			errKind, errMsg := "", ""
			if r.Error != nil {
				errKind = string(r.Error.Kind)
				errMsg = r.Error.Message
			}
			_, err := tx.Exec(`
				INSERT INTO task_results (run_id, task_id, prompt, backend, model, tier, success, error_kind, error_message, duration_ms, completed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, run.ID, r.TaskID, prompts[r.TaskID], r.Backend, r.Model, string(r.Tier),
				boolToInt(r.Success), errKind, errMsg,
				r.Duration.Milliseconds(), formatTime(r.CompletedAt))
			if err != nil {
				return fmt.Errorf("insert task result %s: %w", r.TaskID, err)
			}
		}
		return nil
	})
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, request, kind, mode, task_type, total, succeeded, failed, partial, started_at, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID, or nil when not found.
func (db *DB) GetRun(id string) (*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, request, kind, mode, task_type, total, succeeded, failed, partial, started_at, duration_ms
		FROM runs WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRun(rows)
}

// ListTaskRecords returns the per-task results of a run, oldest completion
// first.
func (db *DB) ListTaskRecords(runID string) ([]*TaskRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT run_id, task_id, prompt, backend, model, tier, success, error_kind, error_message, duration_ms, completed_at
		FROM task_results WHERE run_id = ? ORDER BY completed_at ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list task results: %w", err)
	}
	defer rows.Close()

	var records []*TaskRecord
	for rows.Next() {
		var rec TaskRecord
		var success int
		var durationMS int64
		var completedAt string
		if err := rows.Scan(&rec.RunID, &rec.TaskID, &rec.Prompt, &rec.Backend, &rec.Model,
			&rec.Tier, &success, &rec.ErrorKind, &rec.ErrorMessage, &durationMS, &completedAt); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		rec.Success = success != 0
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := parseTime(completedAt); err == nil {
			rec.CompletedAt = t
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var run Run
	var partial int
	var startedAt string
	var durationMS int64
	if err := rows.Scan(&run.ID, &run.Request, &run.Kind, &run.Mode, &run.TaskType,
		&run.Total, &run.Succeeded, &run.Failed, &partial, &startedAt, &durationMS); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Partial = partial != 0
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if t, err := parseTime(startedAt); err == nil {
		run.StartedAt = t
	}
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
