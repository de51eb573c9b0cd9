package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/model"
)

func TestTaskStatusIsTerminal(t *testing.T) {
	tests := map[string]struct {
		status      model.TaskStatus
		expTerminal bool
	}{
		"Pending is not terminal":     {status: model.TaskStatusPending, expTerminal: false},
		"In progress is not terminal": {status: model.TaskStatusInProgress, expTerminal: false},
		"Completed is terminal":       {status: model.TaskStatusCompleted, expTerminal: true},
		"Failed is terminal":          {status: model.TaskStatusFailed, expTerminal: true},
		"Cancelled is terminal":       {status: model.TaskStatusCancelled, expTerminal: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expTerminal, tc.status.IsTerminal())
		})
	}
}

func TestProcessStatusIsTerminal(t *testing.T) {
	tests := map[string]struct {
		status      model.ProcessStatus
		expTerminal bool
	}{
		"Starting is not terminal": {status: model.ProcessStatusStarting, expTerminal: false},
		"Running is not terminal":  {status: model.ProcessStatusRunning, expTerminal: false},
		"Stopping is not terminal": {status: model.ProcessStatusStopping, expTerminal: false},
		"Completed is terminal":    {status: model.ProcessStatusCompleted, expTerminal: true},
		"Stopped is terminal":      {status: model.ProcessStatusStopped, expTerminal: true},
		"Failed is terminal":       {status: model.ProcessStatusFailed, expTerminal: true},
		"Timeout is terminal":      {status: model.ProcessStatusTimeout, expTerminal: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expTerminal, tc.status.IsTerminal())
		})
	}
}

func TestTaskValidate(t *testing.T) {
	tests := map[string]struct {
		task   model.Task
		expErr bool
	}{
		"Valid task": {
			task: model.Task{ID: "01HRW9YZTEST000000000001", Title: "Deploy the release", Status: model.TaskStatusPending},
		},
		"Missing id fails": {
			task:   model.Task{Title: "Deploy the release", Status: model.TaskStatusPending},
			expErr: true,
		},
		"Missing title fails": {
			task:   model.Task{ID: "01HRW9YZTEST000000000001", Status: model.TaskStatusPending},
			expErr: true,
		},
		"Unknown status fails": {
			task:   model.Task{ID: "01HRW9YZTEST000000000001", Title: "Deploy the release", Status: "exploded"},
			expErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.task.Validate()

			if tc.expErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrNotValid)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	encoded, err := model.EncodeMetadata(model.PlanLogMetadata{Plan: "1. Do it", SubTaskCount: 1})
	require.NoError(t, err)

	var decoded model.PlanLogMetadata
	require.NoError(t, model.DecodeMetadata(encoded, &decoded))
	assert.Equal(t, "1. Do it", decoded.Plan)
	assert.Equal(t, 1, decoded.SubTaskCount)
}

func TestCleanupResultErrors(t *testing.T) {
	res := model.CleanupResult{
		DeletedSessions: 1,
		Outcomes: []model.CleanupOutcome{
			{SessionID: "a", DeletedFiles: 3},
			{SessionID: "b", Error: "could not delete directory"},
		},
	}

	assert.Equal(t, []string{"could not delete directory"}, res.Errors())
}
