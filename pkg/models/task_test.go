package models

import (
	"testing"
	"time"
)

func TestTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   bool
	}{
		{"pending is valid", TaskStatusPending, true},
		{"running is valid", TaskStatusRunning, true},
		{"succeeded is valid", TaskStatusSucceeded, true},
		{"failed is valid", TaskStatusFailed, true},
		{"empty string is invalid", TaskStatus(""), false},
		{"unknown status is invalid", TaskStatus("unknown"), false},
		{"typo status is invalid", TaskStatus("pendingg"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("TaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTaskStatus_Terminal(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		want   bool
	}{
		{"pending is not terminal", TaskStatusPending, false},
		{"running is not terminal", TaskStatusRunning, false},
		{"succeeded is terminal", TaskStatusSucceeded, true},
		{"failed is terminal", TaskStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.want {
				t.Errorf("TaskStatus(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestSubTask_DefaultValues(t *testing.T) {
	task := SubTask{}

	if task.ID != "" {
		t.Errorf("SubTask.ID default should be empty string, got %q", task.ID)
	}
	if task.DependsOn != nil {
		t.Errorf("SubTask.DependsOn default should be nil, got %v", task.DependsOn)
	}
	if task.StartedAt != nil {
		t.Errorf("SubTask.StartedAt default should be nil, got %v", task.StartedAt)
	}
	if task.CompletedAt != nil {
		t.Errorf("SubTask.CompletedAt default should be nil, got %v", task.CompletedAt)
	}
	if task.Timeout != 0 {
		t.Errorf("SubTask.Timeout default should be 0, got %v", task.Timeout)
	}
	if !task.CreatedAt.IsZero() {
		t.Errorf("SubTask.CreatedAt default should be zero time, got %v", task.CreatedAt)
	}
}

func TestSubTask_TimestampsTrackLifecycle(t *testing.T) {
	now := time.Now()
	started := now.Add(time.Second)
	completed := now.Add(2 * time.Second)

	task := SubTask{
		ID:          "t1",
		Prompt:      "implement user management",
		DependsOn:   []string{"t0"},
		Status:      TaskStatusSucceeded,
		CreatedAt:   now,
		StartedAt:   &started,
		CompletedAt: &completed,
	}

	if !task.Status.Terminal() {
		t.Fatalf("SubTask.Status = %q should be terminal", task.Status)
	}
	if !task.StartedAt.After(task.CreatedAt) {
		t.Error("StartedAt should be after CreatedAt")
	}
	if !task.CompletedAt.After(*task.StartedAt) {
		t.Error("CompletedAt should be after StartedAt")
	}
}
