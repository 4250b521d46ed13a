package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PhantomStrikers/sanguoxianhua/internals/outcome"
	"github.com/PhantomStrikers/sanguoxianhua/internals/runlog"
	"github.com/PhantomStrikers/sanguoxianhua/internals/tasks"
	"github.com/PhantomStrikers/sanguoxianhua/internals/testutil"
	"github.com/PhantomStrikers/sanguoxianhua/sdk"
)

type fakeAPI struct {
	upvotes     []string
	views       []string
	details     []string
	shares      int
	taskLists   int
	upvoteErr   map[int]error
	shareErr    map[int]error
	viewFail    map[int]bool
	sharePanic  map[int]bool
	taskList    []tasks.Task
	taskListErr error
	detailErr   error
}

func (f *fakeAPI) PostDetail(ctx context.Context, postID string) error {
	f.details = append(f.details, postID)
	return f.detailErr
}

func (f *fakeAPI) Upvote(ctx context.Context, postID string) (*sdk.Envelope, error) {
	f.upvotes = append(f.upvotes, postID)
	if err := f.upvoteErr[len(f.upvotes)]; err != nil {
		return nil, err
	}
	return &sdk.Envelope{Code: 1000}, nil
}

func (f *fakeAPI) UpdateViewProgress(ctx context.Context, postID string) sdk.ProgressResult {
	f.views = append(f.views, postID)
	if f.viewFail[len(f.views)] {
		return sdk.ProgressResult{
			Activity: sdk.Slot{Err: errors.New("timeout")},
			Task:     sdk.Slot{Envelope: &sdk.Envelope{Code: 2001, Message: "busy"}},
		}
	}
	return sdk.ProgressResult{
		Activity: sdk.Slot{Envelope: &sdk.Envelope{Code: 500}},
		Task:     sdk.Slot{Envelope: &sdk.Envelope{Code: 1000}},
	}
}

func (f *fakeAPI) UpdateShareProgress(ctx context.Context) (*sdk.Envelope, error) {
	f.shares++
	if f.sharePanic[f.shares] {
		panic("unexpected nil")
	}
	if err := f.shareErr[f.shares]; err != nil {
		return nil, err
	}
	return &sdk.Envelope{Code: 1000}, nil
}

func (f *fakeAPI) TaskList(ctx context.Context) ([]tasks.Task, error) {
	f.taskLists++
	return f.taskList, f.taskListErr
}

func newExecutor(api API, sleeper *testutil.SleepRecorder) (*Executor, *runlog.Logger) {
	log := runlog.New(nil).For("tester")
	return New(api, log, Config{Interval: 2 * time.Second, Sleep: sleeper.Sleep}), log
}

func pool(size int) []string {
	ids := make([]string, 0, size)
	for i := 0; i < size; i++ {
		ids = append(ids, fmt.Sprintf("%d", 100+i))
	}
	return ids
}

func pending(need int) *tasks.Task {
	return &tasks.Task{ID: 1001, Status: tasks.StatusInProgress, Target: need}
}

func TestLikeNeverExceedsCap(t *testing.T) {
	for _, need := range []int{0, 1, 5, 10, 20} {
		for _, size := range []int{0, 3, 10, 20} {
			api := &fakeAPI{}
			ex, _ := newExecutor(api, &testutil.SleepRecorder{})
			results := ex.Like(context.Background(), pending(need), pool(size))

			want := min(need, 10, size)
			if len(api.upvotes) != want {
				t.Fatalf("need=%d pool=%d: expected %d upvotes, got %d", need, size, want, len(api.upvotes))
			}
			if len(results) != want {
				t.Fatalf("need=%d pool=%d: expected %d outcomes, got %d", need, size, want, len(results))
			}
		}
	}
}

func TestLikeSkipsFinishedTask(t *testing.T) {
	api := &fakeAPI{}
	ex, _ := newExecutor(api, &testutil.SleepRecorder{})
	done := &tasks.Task{ID: 1001, Status: tasks.StatusCompleted, Target: 10}
	if got := ex.Like(context.Background(), done, pool(10)); len(got) != 0 {
		t.Fatalf("expected no likes, got %v", got)
	}
	if got := ex.Like(context.Background(), nil, pool(10)); len(got) != 0 {
		t.Fatalf("expected no likes for missing task, got %v", got)
	}
}

func TestLikeFailureDoesNotStopLoop(t *testing.T) {
	api := &fakeAPI{upvoteErr: map[int]error{2: errors.New("connection reset")}}
	sleeper := &testutil.SleepRecorder{}
	ex, _ := newExecutor(api, sleeper)

	results := ex.Like(context.Background(), pending(4), pool(4))
	if len(results) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(results))
	}
	for i, r := range results {
		wantOK := i != 1
		if r.OK() != wantOK {
			t.Fatalf("outcome %d: expected ok=%v, got %s", i+1, wantOK, r)
		}
	}
	if !strings.Contains(results[1].Detail, "connection reset") {
		t.Fatalf("expected failure detail, got %q", results[1].Detail)
	}
	// only successful likes report progress
	if len(api.views) != 3 {
		t.Fatalf("expected 3 progress updates, got %d", len(api.views))
	}
	if sleeper.Count(2*time.Second) != 4 || sleeper.Count(800*time.Millisecond) != 4 {
		t.Fatalf("unexpected pacing %v", sleeper.Delays())
	}
}

func TestDetailFailuresAreIgnored(t *testing.T) {
	api := &fakeAPI{detailErr: errors.New("topic not found")}
	ex, _ := newExecutor(api, &testutil.SleepRecorder{})

	likes := ex.Like(context.Background(), pending(3), pool(3))
	if len(likes) != 3 || outcome.CountOK(likes) != 3 {
		t.Fatalf("expected 3 successful likes, got %v", outcome.Strings(likes))
	}
	views := ex.View(context.Background(), pending(2), pool(3), 0)
	if len(views) != 2 || outcome.CountOK(views) != 2 {
		t.Fatalf("expected 2 successful views, got %v", outcome.Strings(views))
	}
	// one detail per like, two per successful view
	if len(api.details) != 3+2*2 {
		t.Fatalf("expected 7 detail fetches, got %d", len(api.details))
	}
	if len(api.upvotes) != 3 {
		t.Fatalf("expected upvotes despite failing details, got %d", len(api.upvotes))
	}
}

func TestViewCyclesThroughPool(t *testing.T) {
	api := &fakeAPI{}
	ex, _ := newExecutor(api, &testutil.SleepRecorder{})
	candidates := []string{"a", "b", "c"}

	results := ex.View(context.Background(), pending(7), candidates, 10)
	if len(results) != 7 {
		t.Fatalf("expected 7 outcomes, got %d", len(results))
	}
	for i, postID := range api.views {
		want := candidates[(10+i)%3]
		if postID != want {
			t.Fatalf("iteration %d: expected %s, got %s", i, want, postID)
		}
	}
	if len(api.views) != 7 {
		t.Fatalf("expected 7 views, got %d", len(api.views))
	}
}

func TestViewRefetchIsDiagnosticOnly(t *testing.T) {
	api := &fakeAPI{taskList: []tasks.Task{{ID: 1001, Status: tasks.StatusCompleted, Progress: 3, Target: 3}}}
	sleeper := &testutil.SleepRecorder{}
	ex, log := newExecutor(api, sleeper)

	results := ex.View(context.Background(), pending(3), pool(2), 0)
	if len(results) != 3 || outcome.CountOK(results) != 3 {
		t.Fatalf("expected 3 successful views, got %v", results)
	}
	if api.taskLists != 1 {
		t.Fatalf("expected one re-read, got %d", api.taskLists)
	}
	if sleeper.Count(4*time.Second) != 3 || sleeper.Count(1500*time.Millisecond) != 1 {
		t.Fatalf("expected doubled interval and one settle delay, got %v", sleeper.Delays())
	}
	// detail before and after each successful view
	if len(api.details) != 6 {
		t.Fatalf("expected 6 detail reads, got %d", len(api.details))
	}

	found := false
	for _, line := range log.Lines() {
		if strings.Contains(line, "view task progress: 3/3") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected progress line, got %v", log.Lines())
	}
}

func TestViewFailureIsIsolated(t *testing.T) {
	api := &fakeAPI{viewFail: map[int]bool{2: true}, taskListErr: errors.New("down")}
	ex, _ := newExecutor(api, &testutil.SleepRecorder{})

	results := ex.View(context.Background(), pending(4), pool(5), 0)
	if len(results) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(results))
	}
	if results[1].OK() || !results[0].OK() || !results[2].OK() || !results[3].OK() {
		t.Fatalf("unexpected outcomes %v", outcome.Strings(results))
	}
	if !strings.Contains(results[1].Detail, "timeout") || !strings.Contains(results[1].Detail, "busy") {
		t.Fatalf("expected both slot failures in detail, got %q", results[1].Detail)
	}
}

func TestViewEmptyPool(t *testing.T) {
	api := &fakeAPI{}
	ex, _ := newExecutor(api, &testutil.SleepRecorder{})
	if got := ex.View(context.Background(), pending(3), nil, 10); len(got) != 0 {
		t.Fatalf("expected no views, got %v", got)
	}
	if api.taskLists != 0 {
		t.Fatalf("expected no re-read")
	}
}

func TestShareFailureOnSecondOfFour(t *testing.T) {
	api := &fakeAPI{shareErr: map[int]error{2: errors.New("502 bad gateway")}}
	sleeper := &testutil.SleepRecorder{}
	ex, _ := newExecutor(api, sleeper)

	results := ex.Share(context.Background(), pending(4))
	if len(results) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(results))
	}
	if !results[0].OK() || results[1].OK() || !results[2].OK() || !results[3].OK() {
		t.Fatalf("unexpected outcomes %v", outcome.Strings(results))
	}
	if api.shares != 4 {
		t.Fatalf("expected 4 share calls, got %d", api.shares)
	}
	if sleeper.Count(2*time.Second) != 4 {
		t.Fatalf("expected standard interval after each share, got %v", sleeper.Delays())
	}
}

func TestSharePanicIsIsolated(t *testing.T) {
	api := &fakeAPI{sharePanic: map[int]bool{1: true}}
	ex, _ := newExecutor(api, &testutil.SleepRecorder{})

	results := ex.Share(context.Background(), pending(2))
	if len(results) != 2 || results[0].OK() || !results[1].OK() {
		t.Fatalf("unexpected outcomes %v", outcome.Strings(results))
	}
}

func TestShareCodeFailure(t *testing.T) {
	gs := testutil.NewGameServer(t).DailyTasks(10, 3, 2)
	gs.RespondCode("/task/sgxh-task/updateTaskProgress", 3001)
	client := sdk.NewClient("token", "", sdk.WithAPIBaseURL(gs.URL), sdk.WithForumBaseURL(gs.URL))
	ex, _ := newExecutor(client, &testutil.SleepRecorder{})

	results := ex.Share(context.Background(), pending(2))
	if len(results) != 2 || outcome.CountOK(results) != 0 {
		t.Fatalf("expected 2 failures, got %v", outcome.Strings(results))
	}
	if results[0].Detail != "code 3001" {
		t.Fatalf("unexpected detail %q", results[0].Detail)
	}
}

func TestCycleIndex(t *testing.T) {
	for i := 0; i < 7; i++ {
		if got := CycleIndex(10, i, 3); got != (10+i)%3 {
			t.Fatalf("i=%d: expected %d, got %d", i, (10+i)%3, got)
		}
	}
	if got := CycleIndex(-1, 0, 3); got != 2 {
		t.Fatalf("expected negative start to wrap, got %d", got)
	}
}
