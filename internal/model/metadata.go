package model

import "encoding/json"

// Metadata blobs are persisted as opaque JSON strings. Each call site uses one
// of the typed payloads below instead of free-form maps.

// TaskMetadata is the payload stored on Task.Metadata.
type TaskMetadata struct {
	// SessionID is the sandbox session bound to the task, if any.
	SessionID string `json:"session_id,omitempty"`
}

// PlanLogMetadata is the payload attached to the planning audit entry.
type PlanLogMetadata struct {
	// Plan is the raw plan text returned by the model.
	Plan         string `json:"plan"`
	SubTaskCount int    `json:"sub_task_count"`
}

// ExecutionLogMetadata is the payload attached to a sub-task completion entry.
type ExecutionLogMetadata struct {
	// Response is the raw, uninterpreted model response for the sub-task.
	Response string `json:"response"`
}

// EncodeMetadata serializes a metadata payload into its persisted JSON form.
func EncodeMetadata(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeMetadata deserializes a persisted metadata blob into the given payload.
func DecodeMetadata(data string, v any) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
