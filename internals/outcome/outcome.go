package outcome

import (
	"fmt"
)

type Action string

const (
	ActionLike  Action = "like"
	ActionView  Action = "view"
	ActionShare Action = "share"
	ActionClaim Action = "claim"
)

type Result string

const (
	ResultSuccess Result = "success"
	ResultFailed  Result = "failed"
	// ResultSkipped is informational: nothing was done and nothing went wrong.
	ResultSkipped Result = "skipped"
)

// Outcome records one attempted action.
type Outcome struct {
	Action Action
	Target string
	Result Result
	Detail string
}

func Success(action Action, target string) Outcome {
	return Outcome{Action: action, Target: target, Result: ResultSuccess}
}

func Failed(action Action, target string, detail string) Outcome {
	return Outcome{Action: action, Target: target, Result: ResultFailed, Detail: detail}
}

func Skipped(action Action, target string, detail string) Outcome {
	return Outcome{Action: action, Target: target, Result: ResultSkipped, Detail: detail}
}

func (o Outcome) OK() bool {
	return o.Result == ResultSuccess
}

func (o Outcome) String() string {
	s := string(o.Result) + " " + string(o.Action)
	if o.Target != "" {
		s += " " + o.Target
	}
	if o.Detail != "" {
		s += ": " + o.Detail
	}
	return s
}

func CountOK(list []Outcome) int {
	count := 0
	for _, o := range list {
		if o.OK() {
			count++
		}
	}
	return count
}

func Strings(list []Outcome) []string {
	out := make([]string, 0, len(list))
	for _, o := range list {
		out = append(out, o.String())
	}
	return out
}

// Guard runs fn and turns a panic into a failed outcome.
func Guard(action Action, target string, fn func() Outcome) (result Outcome) {
	defer func() {
		if r := recover(); r != nil {
			result = Failed(action, target, fmt.Sprintf("panic: %v", r))
		}
	}()
	return fn()
}
