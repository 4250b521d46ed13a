package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

const (
	LikeTaskID  = 1001
	ViewTaskID  = 1003
	ShareTaskID = 1004
)

// FakeTask is the server side state of one task.
type FakeTask struct {
	ID       int
	Desc     string
	Type     int
	Progress int
	Target   int
	Status   int
}

// GameServer fakes both game API hosts on one listener. Likes, views and
// shares advance the matching task and completed tasks become claimable.
type GameServer struct {
	*httptest.Server

	mu         sync.Mutex
	tasks      []*FakeTask
	posts      []string
	claimed    map[int]bool
	calls      []string
	failures   map[string]int
	responses  map[string]int
	signedIn   map[string]bool
	nickname   string
	coin       int
	signReward int
}

func NewGameServer(t *testing.T) *GameServer {
	t.Helper()
	gs := &GameServer{
		claimed:    map[int]bool{},
		failures:   map[string]int{},
		responses:  map[string]int{},
		signedIn:   map[string]bool{},
		nickname:   "tester",
		coin:       100,
		signReward: 5,
	}
	gs.Server = httptest.NewServer(gs.router())
	t.Cleanup(gs.Close)
	return gs
}

// DailyTasks seeds the like, view and share tasks with the given targets.
func (gs *GameServer) DailyTasks(like, view, share int) *GameServer {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.tasks = []*FakeTask{
		{ID: LikeTaskID, Desc: "like posts", Type: 1, Target: like, Status: -1},
		{ID: ViewTaskID, Desc: "view posts", Type: 1, Target: view, Status: -1},
		{ID: ShareTaskID, Desc: "share once", Type: 1, Target: share, Status: -1},
	}
	return gs
}

func (gs *GameServer) AddTask(task FakeTask) *GameServer {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	copied := task
	gs.tasks = append(gs.tasks, &copied)
	return gs
}

func (gs *GameServer) Posts(ids ...string) *GameServer {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.posts = append([]string{}, ids...)
	return gs
}

// FailNext makes the next n calls to path answer 500.
func (gs *GameServer) FailNext(path string, n int) *GameServer {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.failures[path] = n
	return gs
}

// RespondCode makes every call to path answer with code.
func (gs *GameServer) RespondCode(path string, code int) *GameServer {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.responses[path] = code
	return gs
}

func (gs *GameServer) Task(id int) FakeTask {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, task := range gs.tasks {
		if task.ID == id {
			return *task
		}
	}
	return FakeTask{}
}

func (gs *GameServer) Calls() []string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return append([]string{}, gs.calls...)
}

func (gs *GameServer) CountCalls(call string) int {
	count := 0
	for _, c := range gs.Calls() {
		if c == call {
			count++
		}
	}
	return count
}

func (gs *GameServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(gs.record)

	r.Get("/api/profile", gs.handleProfile)
	r.Post("/api/user/signIn", gs.handleSignIn)
	r.Get("/api/topics/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, map[string]any{"id": chi.URLParam(r, "id")})
	})

	r.Get("/task/sgxh-task/taskList", gs.handleTaskList)
	r.Get("/postings/hotList", gs.handleHotList)
	r.Post("/postings/sgxh/post/upvote", gs.handleUpvote)
	r.Post("/user/act-user-task/updateTaskProgress", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 1000, nil)
	})
	r.Post("/task/sgxh-task/updateTaskProgress", gs.handleTaskProgress)
	r.Post("/task/sgxh-task/getReward", gs.handleGetReward)
	return r
}

func (gs *GameServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gs.mu.Lock()
		gs.calls = append(gs.calls, r.Method+" "+r.URL.Path)
		remaining := gs.failures[r.URL.Path]
		if remaining > 0 {
			gs.failures[r.URL.Path] = remaining - 1
		}
		code, forced := gs.responses[r.URL.Path]
		gs.mu.Unlock()

		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if remaining > 0 {
			http.Error(w, `{"message":"injected failure"}`, http.StatusInternalServerError)
			return
		}
		if forced {
			writeEnvelope(w, code, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (gs *GameServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	writeEnvelope(w, 0, map[string]any{"nick_name": gs.nickname, "coin": gs.coin})
}

func (gs *GameServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	token := r.Header.Get("Authorization")
	if gs.signedIn[token] {
		writeEnvelopeMsg(w, 1, "already signed in")
		return
	}
	gs.signedIn[token] = true
	gs.coin += gs.signReward
	writeEnvelope(w, 0, map[string]any{"num": gs.signReward})
}

func (gs *GameServer) handleTaskList(w http.ResponseWriter, r *http.Request) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	list := make([]map[string]any, 0, len(gs.tasks))
	for _, task := range gs.tasks {
		entry := map[string]any{
			"taskId":               task.ID,
			"taskDesc":             task.Desc,
			"taskType":             task.Type,
			"currentProgressValue": task.Progress,
			"targetProgressValue":  task.Target,
			"progressStatus":       task.Status,
			"rewardInfos":          []map[string]any{{"num": 10}},
		}
		if task.Status >= 1 {
			entry["taskProgressId"] = 50000 + task.ID
		}
		list = append(list, entry)
	}
	writeEnvelope(w, 1000, list)
}

func (gs *GameServer) handleHotList(w http.ResponseWriter, r *http.Request) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	posts := make([]map[string]any, 0, len(gs.posts))
	for i, id := range gs.posts {
		// alternate the id field name like the real hot list does
		if i%2 == 0 {
			posts = append(posts, map[string]any{"id": id})
		} else {
			posts = append(posts, map[string]any{"postId": id})
		}
	}
	writeEnvelope(w, 0, posts)
}

func (gs *GameServer) handleUpvote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PostID   json.RawMessage `json:"postId"`
		IsUpvote int             `json:"isUpvote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsUpvote != 1 || len(body.PostID) == 0 {
		writeEnvelopeMsg(w, 400, "bad request")
		return
	}
	gs.advance(LikeTaskID)
	writeEnvelope(w, 1000, nil)
}

func (gs *GameServer) handleTaskProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OperateType int    `json:"operateType"`
		GameID      string `json:"gameId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelopeMsg(w, 400, "bad request")
		return
	}
	switch body.OperateType {
	case 1:
		gs.advance(ViewTaskID)
	case 2:
		gs.advance(ShareTaskID)
	default:
		writeEnvelopeMsg(w, 400, fmt.Sprintf("unknown operateType %d", body.OperateType))
		return
	}
	writeEnvelope(w, 1000, nil)
}

func (gs *GameServer) handleGetReward(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TaskProgressID json.Number `json:"taskProgressId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeEnvelopeMsg(w, 400, "bad request")
		return
	}
	progressID, err := strconv.Atoi(body.TaskProgressID.String())
	if err != nil {
		writeEnvelopeMsg(w, 400, "bad taskProgressId")
		return
	}
	taskID := progressID - 50000

	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.claimed[taskID] {
		writeEnvelopeMsg(w, 4003, "already claimed")
		return
	}
	for _, task := range gs.tasks {
		if task.ID == taskID && task.Status == 1 {
			task.Status = 2
			gs.claimed[taskID] = true
			writeEnvelope(w, 1000, nil)
			return
		}
	}
	writeEnvelopeMsg(w, 4004, "task not completed")
}

func (gs *GameServer) advance(id int) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, task := range gs.tasks {
		if task.ID != id || task.Status >= 1 {
			continue
		}
		task.Progress++
		task.Status = 0
		if task.Progress >= task.Target {
			task.Status = 1
		}
	}
}

func writeEnvelope(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "data": data})
}

func writeEnvelopeMsg(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message})
}
