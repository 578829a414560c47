package models

import (
	"testing"
	"time"
)

func TestExecutionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExecutionError
		want string
	}{
		{
			"kind and message",
			&ExecutionError{Kind: ErrKindTimeout, Message: "backend call exceeded 30s"},
			"timeout: backend call exceeded 30s",
		},
		{
			"kind only",
			&ExecutionError{Kind: ErrKindBatchCancelled},
			"batch_cancelled",
		},
		{
			"dependency failure names the prerequisite",
			NewExecutionError(ErrKindDependencyFailed, "dependency %s failed", "t1"),
			"dependency_failed: dependency t1 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ExecutionError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBatchResult_ResultFor(t *testing.T) {
	batch := &BatchResult{
		BatchID:   "b1",
		Total:     3,
		Succeeded: 2,
		Failed:    1,
		Partial:   true,
		Results: []*ExecutionResult{
			{TaskID: "t2", Success: true, CompletedAt: time.Now()},
			{TaskID: "t1", Success: true, CompletedAt: time.Now()},
			{TaskID: "t3", Success: false, Error: &ExecutionError{Kind: ErrKindAllTiersExhausted}},
		},
	}

	r := batch.ResultFor("t1")
	if r == nil {
		t.Fatal("ResultFor(t1) returned nil")
	}
	if !r.Success {
		t.Error("ResultFor(t1).Success = false, want true")
	}

	r = batch.ResultFor("t3")
	if r == nil {
		t.Fatal("ResultFor(t3) returned nil")
	}
	if r.Error == nil || r.Error.Kind != ErrKindAllTiersExhausted {
		t.Errorf("ResultFor(t3).Error = %v, want kind %q", r.Error, ErrKindAllTiersExhausted)
	}

	if got := batch.ResultFor("missing"); got != nil {
		t.Errorf("ResultFor(missing) = %v, want nil", got)
	}
}
