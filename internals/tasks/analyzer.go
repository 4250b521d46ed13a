package tasks

// Analysis is a pure view over one task list snapshot.
type Analysis struct {
	ByID      map[int]Task
	Daily     []Task
	Total     int
	Completed int
}

// Analyze indexes tasks by id and counts the finished ones. Completed counts
// both COMPLETED and REWARD_CLAIMED tasks. When ids repeat, the last record
// wins in ByID.
func Analyze(list []Task) Analysis {
	analysis := Analysis{
		ByID:  make(map[int]Task, len(list)),
		Daily: []Task{},
		Total: len(list),
	}
	for _, task := range list {
		analysis.ByID[task.ID] = task
		if task.Type == TypeDaily {
			analysis.Daily = append(analysis.Daily, task)
		}
		if task.Status >= StatusCompleted {
			analysis.Completed++
		}
	}
	return analysis
}

// Lookup returns the task with id, or nil when the snapshot does not have it.
func (a Analysis) Lookup(id int) *Task {
	task, ok := a.ByID[id]
	if !ok {
		return nil
	}
	return &task
}

// Claimable filters list down to tasks whose reward can be requested.
func Claimable(list []Task) []Task {
	out := []Task{}
	for _, task := range list {
		if task.CanClaim() {
			out = append(out, task)
		}
	}
	return out
}

// NeedExecuteCount is how many more actions task needs. A nil or finished
// task needs none, and progress past target clamps to zero.
func NeedExecuteCount(task *Task) int {
	if task == nil {
		return 0
	}
	if task.Status >= StatusCompleted {
		return 0
	}
	return max(0, task.Target-task.Progress)
}
