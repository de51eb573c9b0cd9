package printer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/printer"
)

func taskFixture() model.Task {
	createdAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	return model.Task{
		ID:        "01234567890ABCDEFGHIJKLMNOP",
		Title:     "ship release",
		Status:    model.TaskStatusInProgress,
		Priority:  model.TaskPriorityMedium,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestTablePrinterPrintTaskStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTaskStatus(taskFixture(), []model.SubTask{
		{ID: "s1", Title: "build", Status: model.TaskStatusCompleted, Order: 0},
		{ID: "s2", Title: "upload", Status: model.TaskStatusPending, Order: 1},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ship release")
	assert.Contains(t, out, "in_progress")
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "upload")
	assert.Contains(t, out, "2026-01-30 10:00:00 UTC")
}

func TestTablePrinterPrintTaskListEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTaskList(nil)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestTablePrinterPrintTaskList(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTaskList([]model.Task{taskFixture()})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[0], "TITLE")
	assert.Contains(t, lines[1], "ship release")
}

func TestTablePrinterPrintExecResult(t *testing.T) {
	tests := map[string]struct {
		result model.ExecResult
		exp    string
	}{
		"Successful execution prints stdout.": {
			result: model.ExecResult{Success: true, Stdout: "hello\n"},
			exp:    "hello\n",
		},

		"Failed execution prints stderr and the exit code.": {
			result: model.ExecResult{Success: false, Stderr: "oops\n", ExitCode: 3},
			exp:    "oops\ncommand failed (exit code 3)\n",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			err := p.PrintExecResult(test.result)
			require.NoError(t, err)
			assert.Equal(t, test.exp, buf.String())
		})
	}
}

func TestTablePrinterPrintCleanupResult(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintCleanupResult(model.CleanupResult{
		DeletedSessions: 2,
		DeletedFiles:    10,
		Outcomes: []model.CleanupOutcome{
			{SessionID: "s1", DeletedFiles: 10},
			{SessionID: "s2"},
			{SessionID: "s3", Error: "could not remove session directory: permission denied"},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Deleted sessions: 2")
	assert.Contains(t, out, "Deleted files:    10")
	assert.Contains(t, out, "permission denied")
}

func TestJSONPrinterPrintTaskList(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintTaskList([]model.Task{taskFixture()})
	require.NoError(t, err)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "ship release", items[0]["title"])
	assert.Equal(t, "in_progress", items[0]["status"])
}

func TestJSONPrinterPrintSessionHistory(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	now := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	err := p.PrintSessionHistory(
		[]model.CommandRecord{{Command: "echo hi", CreatedAt: now}},
		[]model.OutputRecord{{ProcessID: "p1", Stdout: "hi\n", ExitCode: 0, CreatedAt: now}},
	)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	commands := out["commands"].([]any)
	require.Len(t, commands, 1)
	assert.Equal(t, "echo hi", commands[0].(map[string]any)["command"])
	outputs := out["outputs"].([]any)
	require.Len(t, outputs, 1)
	assert.Equal(t, "hi\n", outputs[0].(map[string]any)["stdout"])
}

func TestJSONPrinterPrintCleanupResultEmptyErrors(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintCleanupResult(model.CleanupResult{DeletedSessions: 1, DeletedFiles: 3})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, float64(1), out["deleted_sessions"])
	assert.Equal(t, []any{}, out["errors"])
}
