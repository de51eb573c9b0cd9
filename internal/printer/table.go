package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/taskpilot/taskpilot/internal/model"
)

// TablePrinter prints task and session information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintTaskList prints tasks in a table format.
func (t *TablePrinter) PrintTaskList(tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tCREATED")

	// Print rows
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", task.ID, task.Title, task.Status, task.Priority, TimeAgo(task.CreatedAt))
	}

	return nil
}

// PrintTaskStatus prints detailed task status with its sub-tasks.
func (t *TablePrinter) PrintTaskStatus(task model.Task, subTasks []model.SubTask) error {
	fmt.Fprintf(t.writer, "ID:          %s\n", task.ID)
	fmt.Fprintf(t.writer, "Title:       %s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(t.writer, "Description: %s\n", task.Description)
	}
	fmt.Fprintf(t.writer, "Status:      %s\n", task.Status)
	fmt.Fprintf(t.writer, "Priority:    %s\n", task.Priority)
	fmt.Fprintf(t.writer, "Created:     %s\n", FormatTimestamp(task.CreatedAt))

	if task.CompletedAt != nil {
		fmt.Fprintf(t.writer, "Completed:   %s\n", FormatTimestamp(*task.CompletedAt))
	}

	if len(subTasks) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "#\tSUB-TASK\tSTATUS")
	for _, st := range subTasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", st.Order+1, st.Title, st.Status)
	}

	return nil
}

// PrintTaskLogs prints task audit entries in a table format.
func (t *TablePrinter) PrintTaskLogs(logs []model.TaskLog) error {
	if len(logs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TIME\tLEVEL\tMESSAGE")
	for _, l := range logs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", FormatTimestamp(l.CreatedAt), l.Level, l.Message)
	}

	return nil
}

// PrintSessionList prints sessions in a table format.
func (t *TablePrinter) PrintSessionList(sessions []model.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tCREATED")
	for _, s := range sessions {
		active := "no"
		if s.Active {
			active = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Name, active, TimeAgo(s.CreatedAt))
	}

	return nil
}

// PrintSessionHistory prints a session's command and output history. Output
// entries are matched to commands by position.
func (t *TablePrinter) PrintSessionHistory(commands []model.CommandRecord, outputs []model.OutputRecord) error {
	if len(commands) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TIME\tCOMMAND\tEXIT\tOUTPUT\tERROR")
	for i, c := range commands {
		exit := ""
		size := ""
		if i < len(outputs) {
			exit = fmt.Sprintf("%d", outputs[i].ExitCode)
			size = FormatBytes(int64(len(outputs[i].Stdout) + len(outputs[i].Stderr)))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", FormatTimestamp(c.CreatedAt), c.Command, exit, size, c.Error)
	}

	return nil
}

// PrintExecResult prints the outcome of a command execution.
func (t *TablePrinter) PrintExecResult(result model.ExecResult) error {
	if result.Stdout != "" {
		fmt.Fprint(t.writer, result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprint(t.writer, result.Stderr)
	}
	if !result.Success {
		fmt.Fprintf(t.writer, "command failed (exit code %d)\n", result.ExitCode)
	}
	return nil
}

// PrintCleanupResult prints the outcome of a retention sweep.
func (t *TablePrinter) PrintCleanupResult(result model.CleanupResult) error {
	fmt.Fprintf(t.writer, "Deleted sessions: %d\n", result.DeletedSessions)
	fmt.Fprintf(t.writer, "Deleted files:    %d\n", result.DeletedFiles)

	errs := result.Errors()
	if len(errs) == 0 {
		return nil
	}

	fmt.Fprintf(t.writer, "Errors:\n")
	for _, e := range errs {
		fmt.Fprintf(t.writer, "  - %s\n", e)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
