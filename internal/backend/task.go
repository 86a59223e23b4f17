package backend

import (
	"encoding/json"
	"fmt"
)

// Task is one entry of a session task plan.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Priority  string    `json:"priority,omitempty"`
	Completed bool      `json:"completed"`
	FocusTime int       `json:"focusTime"`
	DOD       []DODItem `json:"dod,omitempty"`
}

// DODItem is one completion criterion of a task.
type DODItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// UnmarshalJSON accepts either a bare string or an object.
func (item *DODItem) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*item = DODItem{Text: text}
		return nil
	}
	type plain DODItem
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("decode dod item: %w", err)
	}
	*item = DODItem(decoded)
	return nil
}

// TaskUpdate is a partial task update. Nil fields are left unchanged.
type TaskUpdate struct {
	Completed *bool `json:"completed,omitempty"`
	FocusTime *int  `json:"focusTime,omitempty"`
}

// decodeTaskList accepts either a bare array or an object with a tasks field.
func decodeTaskList(data json.RawMessage) ([]Task, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err == nil {
		return tasks, nil
	}
	var wrapped struct {
		Tasks []Task `json:"tasks"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode task list: %w", err)
	}
	return wrapped.Tasks, nil
}
