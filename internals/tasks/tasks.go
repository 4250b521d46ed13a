package tasks

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Status int

const (
	StatusNotStarted    Status = -1
	StatusInProgress    Status = 0
	StatusCompleted     Status = 1
	StatusRewardClaimed Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusRewardClaimed:
		return "reward_claimed"
	default:
		return "unknown"
	}
}

// TypeDaily tags tasks that reset every day.
const TypeDaily = 1

type Task struct {
	ID          int
	Description string
	Type        int
	Progress    int
	Target      int
	Status      Status
	Rewards     []json.RawMessage
	ClaimToken  string
}

// CanClaim reports whether a reward request can be issued for t.
func (t Task) CanClaim() bool {
	return t.Status == StatusCompleted && t.ClaimToken != ""
}

// rawTask mirrors the server record. Every field is optional.
type rawTask struct {
	TaskID               *int              `json:"taskId"`
	TaskDesc             *string           `json:"taskDesc"`
	TaskType             *int              `json:"taskType"`
	CurrentProgressValue *int              `json:"currentProgressValue"`
	TargetProgressValue  *int              `json:"targetProgressValue"`
	ProgressStatus       *int              `json:"progressStatus"`
	RewardInfos          []json.RawMessage `json:"rewardInfos"`
	TaskProgressID       json.RawMessage   `json:"taskProgressId"`
}

// Decode turns the data field of a task list response into tasks. Entries that
// are not objects, or whose fields have the wrong type, are kept with default
// values so the total count still matches the server.
func Decode(data []byte) []Task {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Task{}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return []Task{}
	}
	out := make([]Task, 0, len(entries))
	for _, entry := range entries {
		out = append(out, normalize(decodeEntry(entry)))
	}
	return out
}

// decodeEntry ignores type errors: encoding/json skips a mistyped field and
// still fills the others.
func decodeEntry(entry json.RawMessage) rawTask {
	raw := rawTask{}
	_ = json.Unmarshal(entry, &raw)
	return raw
}

func normalize(raw rawTask) Task {
	task := Task{
		Status:  StatusNotStarted,
		Rewards: []json.RawMessage{},
	}
	if raw.TaskID != nil {
		task.ID = *raw.TaskID
	}
	if raw.TaskDesc != nil {
		task.Description = *raw.TaskDesc
	}
	if raw.TaskType != nil {
		task.Type = *raw.TaskType
	}
	if raw.CurrentProgressValue != nil {
		task.Progress = *raw.CurrentProgressValue
	}
	if raw.TargetProgressValue != nil {
		task.Target = *raw.TargetProgressValue
	}
	if raw.ProgressStatus != nil {
		task.Status = Status(*raw.ProgressStatus)
	}
	if raw.RewardInfos != nil {
		task.Rewards = raw.RewardInfos
	}
	task.ClaimToken = claimToken(raw.TaskProgressID)
	return task
}

// claimToken accepts a string or a number. Null, empty, zero and false all
// mean no token.
func claimToken(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		if n.String() == "0" {
			return ""
		}
		return n.String()
	}
	return ""
}
