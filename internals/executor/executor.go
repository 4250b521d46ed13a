package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/PhantomStrikers/sanguoxianhua/internals/outcome"
	"github.com/PhantomStrikers/sanguoxianhua/internals/pacing"
	"github.com/PhantomStrikers/sanguoxianhua/internals/runlog"
	"github.com/PhantomStrikers/sanguoxianhua/internals/tasks"
	"github.com/PhantomStrikers/sanguoxianhua/sdk"
)

const DefaultLikeCap = 10

// API is the part of the game client the executors drive.
type API interface {
	PostDetail(ctx context.Context, postID string) error
	Upvote(ctx context.Context, postID string) (*sdk.Envelope, error)
	UpdateViewProgress(ctx context.Context, postID string) sdk.ProgressResult
	UpdateShareProgress(ctx context.Context) (*sdk.Envelope, error)
	TaskList(ctx context.Context) ([]tasks.Task, error)
}

type Config struct {
	LikeCap  int
	Interval time.Duration
	Sleep    pacing.Sleeper
}

// Executor runs like, view and share actions for one account, one action at
// a time.
type Executor struct {
	api   API
	log   *runlog.Logger
	cfg   Config
	sleep pacing.Sleeper
}

func New(api API, log *runlog.Logger, cfg Config) *Executor {
	if cfg.LikeCap <= 0 {
		cfg.LikeCap = DefaultLikeCap
	}
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}
	return &Executor{
		api:   api,
		log:   log,
		cfg:   cfg,
		sleep: pacing.Or(cfg.Sleep),
	}
}

// Like upvotes the first min(need, cap, len(pool)) posts of pool.
func (e *Executor) Like(ctx context.Context, task *tasks.Task, pool []string) []outcome.Outcome {
	results := []outcome.Outcome{}
	count := min(tasks.NeedExecuteCount(task), e.cfg.LikeCap, len(pool))
	if count <= 0 {
		return results
	}
	e.log.Infof("running like task, %d likes needed", count)

	for i := 0; i < count; i++ {
		postID := pool[i]
		results = append(results, outcome.Guard(outcome.ActionLike, postID, func() outcome.Outcome {
			return e.likeOnce(ctx, postID)
		}))
		if err := e.sleep(ctx, e.cfg.Interval); err != nil {
			break
		}
	}
	return results
}

func (e *Executor) likeOnce(ctx context.Context, postID string) outcome.Outcome {
	_ = e.api.PostDetail(ctx, postID)
	if err := e.sleep(ctx, pacing.LikeDetail); err != nil {
		return outcome.Failed(outcome.ActionLike, postID, err.Error())
	}
	envelope, err := e.api.Upvote(ctx, postID)
	if err != nil {
		return outcome.Failed(outcome.ActionLike, postID, err.Error())
	}
	if !envelope.In(sdk.TaskSuccess) {
		return outcome.Failed(outcome.ActionLike, postID, envelope.Text())
	}
	// Progress is also reported through the view endpoints; the like already
	// counts whatever they answer.
	_ = e.api.UpdateViewProgress(ctx, postID)
	return outcome.Success(outcome.ActionLike, postID)
}

// View reports need views, walking pool cyclically from start. Once done it
// re-reads the task list and logs the task's progress; that read does not
// change how many views were attempted.
func (e *Executor) View(ctx context.Context, task *tasks.Task, pool []string, start int) []outcome.Outcome {
	results := []outcome.Outcome{}
	need := tasks.NeedExecuteCount(task)
	if need <= 0 {
		return results
	}
	if len(pool) == 0 {
		e.log.Warn("view task skipped, no posts available")
		return results
	}
	e.log.Infof("running view task, %d views needed", need)

	for i := 0; i < need; i++ {
		postID := pool[CycleIndex(start, i, len(pool))]
		results = append(results, outcome.Guard(outcome.ActionView, postID, func() outcome.Outcome {
			return e.viewOnce(ctx, postID)
		}))
		if err := e.sleep(ctx, 2*e.cfg.Interval); err != nil {
			return results
		}
	}

	if err := e.sleep(ctx, pacing.ViewSettle); err != nil {
		return results
	}
	e.logProgress(ctx, task.ID)
	return results
}

func (e *Executor) viewOnce(ctx context.Context, postID string) outcome.Outcome {
	_ = e.api.PostDetail(ctx, postID)
	if err := e.sleep(ctx, pacing.ViewDetail); err != nil {
		return outcome.Failed(outcome.ActionView, postID, err.Error())
	}
	result := e.api.UpdateViewProgress(ctx, postID)
	if !result.OK() {
		return outcome.Failed(outcome.ActionView, postID, result.Err().Error())
	}
	if err := e.sleep(ctx, pacing.ViewLinger); err == nil {
		_ = e.api.PostDetail(ctx, postID)
	}
	return outcome.Success(outcome.ActionView, postID)
}

func (e *Executor) logProgress(ctx context.Context, taskID int) {
	list, err := e.api.TaskList(ctx)
	if err != nil {
		e.log.Warnf("failed to re-read task list: %v", err)
		return
	}
	if task := tasks.Analyze(list).Lookup(taskID); task != nil {
		e.log.Infof("view task progress: %d/%d", task.Progress, task.Target)
	}
}

// Share reports need shares.
func (e *Executor) Share(ctx context.Context, task *tasks.Task) []outcome.Outcome {
	results := []outcome.Outcome{}
	need := tasks.NeedExecuteCount(task)
	if need <= 0 {
		return results
	}
	e.log.Infof("running share task, %d shares needed", need)

	for i := 0; i < need; i++ {
		results = append(results, outcome.Guard(outcome.ActionShare, "", func() outcome.Outcome {
			return e.shareOnce(ctx)
		}))
		if err := e.sleep(ctx, e.cfg.Interval); err != nil {
			break
		}
	}
	return results
}

func (e *Executor) shareOnce(ctx context.Context) outcome.Outcome {
	envelope, err := e.api.UpdateShareProgress(ctx)
	if err != nil {
		return outcome.Failed(outcome.ActionShare, "", err.Error())
	}
	if !envelope.In(sdk.TaskSuccess) {
		return outcome.Failed(outcome.ActionShare, "", envelope.Text())
	}
	return outcome.Success(outcome.ActionShare, "")
}

// CycleIndex is the pool index used by iteration i when starting at start.
func CycleIndex(start, i, size int) int {
	if size <= 0 {
		panic(fmt.Sprintf("cycle over empty pool (start=%d, i=%d)", start, i))
	}
	idx := (start + i) % size
	if idx < 0 {
		idx += size
	}
	return idx
}
