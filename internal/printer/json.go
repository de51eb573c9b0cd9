package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/taskpilot/taskpilot/internal/model"
)

// JSONPrinter prints task and session information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// taskItem represents a task in the list output (subset of fields).
type taskItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// subTaskItem represents a sub-task in the status output.
type subTaskItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Order  int    `json:"order"`
}

// taskStatusOutput represents the full task status output.
type taskStatusOutput struct {
	taskItem
	Description string        `json:"description,omitempty"`
	SubTasks    []subTaskItem `json:"sub_tasks"`
}

// logItem represents a task audit entry.
type logItem struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// sessionItem represents a session in the list output.
type sessionItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// historyOutput represents a session's durable history.
type historyOutput struct {
	Commands []commandItem `json:"commands"`
	Outputs  []outputItem  `json:"outputs"`
}

type commandItem struct {
	Command   string    `json:"command"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type outputItem struct {
	ProcessID string    `json:"process_id"`
	Stdout    string    `json:"stdout"`
	Stderr    string    `json:"stderr"`
	ExitCode  int       `json:"exit_code"`
	CreatedAt time.Time `json:"created_at"`
}

// execResultOutput represents a command execution outcome.
type execResultOutput struct {
	Success   bool   `json:"success"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	ExitCode  int    `json:"exit_code"`
	ProcessID string `json:"process_id"`
}

// cleanupOutput represents a retention sweep outcome.
type cleanupOutput struct {
	DeletedSessions int      `json:"deleted_sessions"`
	DeletedFiles    int      `json:"deleted_files"`
	Errors          []string `json:"errors"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTaskList prints tasks in JSON format with a subset of fields.
func (j *JSONPrinter) PrintTaskList(tasks []model.Task) error {
	items := make([]taskItem, len(tasks))
	for i, t := range tasks {
		items[i] = newTaskItem(t)
	}
	return j.encode(items)
}

// PrintTaskStatus prints detailed task status in JSON format.
func (j *JSONPrinter) PrintTaskStatus(task model.Task, subTasks []model.SubTask) error {
	output := taskStatusOutput{
		taskItem:    newTaskItem(task),
		Description: task.Description,
		SubTasks:    make([]subTaskItem, len(subTasks)),
	}
	for i, st := range subTasks {
		output.SubTasks[i] = subTaskItem{
			ID:     st.ID,
			Title:  st.Title,
			Status: string(st.Status),
			Order:  st.Order,
		}
	}
	return j.encode(output)
}

// PrintTaskLogs prints task audit entries in JSON format.
func (j *JSONPrinter) PrintTaskLogs(logs []model.TaskLog) error {
	items := make([]logItem, len(logs))
	for i, l := range logs {
		items[i] = logItem{
			Level:     string(l.Level),
			Message:   l.Message,
			Metadata:  l.Metadata,
			CreatedAt: l.CreatedAt.UTC(),
		}
	}
	return j.encode(items)
}

// PrintSessionList prints sessions in JSON format.
func (j *JSONPrinter) PrintSessionList(sessions []model.Session) error {
	items := make([]sessionItem, len(sessions))
	for i, s := range sessions {
		items[i] = sessionItem{
			ID:        s.ID,
			Name:      s.Name,
			Active:    s.Active,
			CreatedAt: s.CreatedAt.UTC(),
		}
	}
	return j.encode(items)
}

// PrintSessionHistory prints a session's history in JSON format.
func (j *JSONPrinter) PrintSessionHistory(commands []model.CommandRecord, outputs []model.OutputRecord) error {
	output := historyOutput{
		Commands: make([]commandItem, len(commands)),
		Outputs:  make([]outputItem, len(outputs)),
	}
	for i, c := range commands {
		output.Commands[i] = commandItem{
			Command:   c.Command,
			Error:     c.Error,
			CreatedAt: c.CreatedAt.UTC(),
		}
	}
	for i, o := range outputs {
		output.Outputs[i] = outputItem{
			ProcessID: o.ProcessID,
			Stdout:    o.Stdout,
			Stderr:    o.Stderr,
			ExitCode:  o.ExitCode,
			CreatedAt: o.CreatedAt.UTC(),
		}
	}
	return j.encode(output)
}

// PrintExecResult prints a command execution outcome in JSON format.
func (j *JSONPrinter) PrintExecResult(result model.ExecResult) error {
	return j.encode(execResultOutput{
		Success:   result.Success,
		Stdout:    result.Stdout,
		Stderr:    result.Stderr,
		ExitCode:  result.ExitCode,
		ProcessID: result.ProcessID,
	})
}

// PrintCleanupResult prints a retention sweep outcome in JSON format.
func (j *JSONPrinter) PrintCleanupResult(result model.CleanupResult) error {
	errs := result.Errors()
	if errs == nil {
		errs = []string{}
	}
	return j.encode(cleanupOutput{
		DeletedSessions: result.DeletedSessions,
		DeletedFiles:    result.DeletedFiles,
		Errors:          errs,
	})
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func newTaskItem(t model.Task) taskItem {
	item := taskItem{
		ID:        t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		CreatedAt: t.CreatedAt.UTC(),
	}
	if t.CompletedAt != nil {
		utcTime := t.CompletedAt.UTC()
		item.CompletedAt = &utcTime
	}
	return item
}
