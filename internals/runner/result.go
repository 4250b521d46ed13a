package runner

import (
	"github.com/PhantomStrikers/sanguoxianhua/internals/history"
	"github.com/PhantomStrikers/sanguoxianhua/internals/outcome"
	"github.com/PhantomStrikers/sanguoxianhua/sdk"
)

type SignIn struct {
	Success bool
	Reward  int
	Message string
}

type TaskTotals struct {
	Total     int
	Completed int
}

// AccountResult is what one account's run produced. Fields filled before a
// failure are kept.
type AccountResult struct {
	Name    string
	SignIn  SignIn
	Profile *sdk.Profile
	Tasks   TaskTotals
	Actions []outcome.Outcome
	Claims  []outcome.Outcome
	Claimed int
	Err     error
}

// ActionLog is the ordered list of daily action outcomes as text.
func (r AccountResult) ActionLog() []string {
	return outcome.Strings(r.Actions)
}

func (r AccountResult) SuccessfulActions() int {
	return outcome.CountOK(r.Actions)
}

func (r AccountResult) Record() history.AccountRecord {
	record := history.AccountRecord{
		Account:        r.Name,
		SignedIn:       r.SignIn.Success,
		SignInMessage:  r.SignIn.Message,
		TasksTotal:     r.Tasks.Total,
		TasksCompleted: r.Tasks.Completed,
		ActionsOK:      r.SuccessfulActions(),
		Claimed:        r.Claimed,
	}
	for _, o := range r.Actions {
		if o.Result == outcome.ResultFailed {
			record.ActionsFailed++
		}
	}
	if r.Err != nil {
		record.Error = r.Err.Error()
	}
	return record
}

func Records(results []AccountResult) []history.AccountRecord {
	records := make([]history.AccountRecord, 0, len(results))
	for _, r := range results {
		records = append(records, r.Record())
	}
	return records
}
