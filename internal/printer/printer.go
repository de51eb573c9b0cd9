package printer

import "github.com/taskpilot/taskpilot/internal/model"

// Printer knows how to print task and session information in different formats.
type Printer interface {
	PrintTaskList(tasks []model.Task) error
	PrintTaskStatus(task model.Task, subTasks []model.SubTask) error
	PrintTaskLogs(logs []model.TaskLog) error
	PrintSessionList(sessions []model.Session) error
	PrintSessionHistory(commands []model.CommandRecord, outputs []model.OutputRecord) error
	PrintExecResult(result model.ExecResult) error
	PrintCleanupResult(result model.CleanupResult) error
	PrintMessage(msg string) error
}
