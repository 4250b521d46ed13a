package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PhantomStrikers/sanguoxianhua/internals/accounts"
	"github.com/PhantomStrikers/sanguoxianhua/internals/conf"
	"github.com/PhantomStrikers/sanguoxianhua/internals/executor"
	"github.com/PhantomStrikers/sanguoxianhua/internals/pacing"
	"github.com/PhantomStrikers/sanguoxianhua/internals/rewards"
	"github.com/PhantomStrikers/sanguoxianhua/internals/runlog"
	"github.com/PhantomStrikers/sanguoxianhua/internals/tasks"
	"github.com/PhantomStrikers/sanguoxianhua/sdk"
)

var ErrNoAccounts = errors.New("runner requires at least one account")

// GameAPI is everything one account's run calls on the game backend.
type GameAPI interface {
	executor.API
	rewards.API
	Profile(ctx context.Context) (*sdk.Profile, error)
	SignIn(ctx context.Context) (*sdk.SignInResult, error)
	HotPosts(ctx context.Context, limit int) ([]string, error)
}

// ClientFactory builds the API client for one account.
type ClientFactory func(account accounts.Account) GameAPI

type Config struct {
	LikeTaskID     int
	ViewTaskID     int
	ShareTaskID    int
	PoolSize       int
	MinPool        int
	LikeCap        int
	ViewStartIndex int

	RequestInterval time.Duration
	StageInterval   time.Duration
	AccountInterval time.Duration
	BeforeClaims    time.Duration
}

func DefaultConfig() Config {
	return Config{
		LikeTaskID:      1001,
		ViewTaskID:      1003,
		ShareTaskID:     1004,
		PoolSize:        15,
		MinPool:         5,
		LikeCap:         executor.DefaultLikeCap,
		ViewStartIndex:  10,
		RequestInterval: pacing.Request,
		StageInterval:   pacing.Stage,
		AccountInterval: pacing.Account,
		BeforeClaims:    pacing.BeforeClaims,
	}
}

func ConfigFrom(c *conf.Config) Config {
	cfg := DefaultConfig()
	cfg.LikeTaskID = c.Tasks.LikeTaskID
	cfg.ViewTaskID = c.Tasks.ViewTaskID
	cfg.ShareTaskID = c.Tasks.ShareTaskID
	cfg.PoolSize = c.Tasks.PoolSize
	cfg.MinPool = c.Tasks.MinPool
	cfg.LikeCap = c.Tasks.LikeCap
	cfg.ViewStartIndex = c.Tasks.ViewStartIndex
	cfg.RequestInterval = c.Pacing.RequestInterval()
	cfg.StageInterval = c.Pacing.StageInterval()
	cfg.AccountInterval = c.Pacing.AccountInterval()
	return cfg
}

// Runner processes accounts one after another.
type Runner struct {
	accounts  []accounts.Account
	newClient ClientFactory
	log       *runlog.Logger
	cfg       Config
	sleep     pacing.Sleeper
}

func New(list []accounts.Account, newClient ClientFactory, log *runlog.Logger, cfg Config, sleep pacing.Sleeper) (*Runner, error) {
	if len(list) == 0 {
		return nil, ErrNoAccounts
	}
	if newClient == nil {
		return nil, errors.New("runner requires a client factory")
	}
	if log == nil {
		log = runlog.New(slog.Default())
	}
	return &Runner{
		accounts:  append([]accounts.Account{}, list...),
		newClient: newClient,
		log:       log,
		cfg:       cfg,
		sleep:     pacing.Or(sleep),
	}, nil
}

// Run processes every account in order and returns one result per account
// that was started. A cancelled ctx stops before the next account.
func (r *Runner) Run(ctx context.Context) []AccountResult {
	r.log.Infof("starting daily tasks for %d account(s)", len(r.accounts))
	results := make([]AccountResult, 0, len(r.accounts))
	for i, account := range r.accounts {
		results = append(results, r.ProcessAccount(ctx, account))
		if i == len(r.accounts)-1 {
			break
		}
		if err := r.sleep(ctx, r.cfg.AccountInterval); err != nil {
			r.log.Warnf("run stopped after %d of %d accounts: %v", i+1, len(r.accounts), err)
			break
		}
	}
	r.log.Success("all accounts processed")
	return results
}

// ProcessAccount runs the daily pipeline for one account. Stage failures
// are logged and the pipeline moves on; a panic ends the account with the
// result filled so far.
func (r *Runner) ProcessAccount(ctx context.Context, account accounts.Account) (result AccountResult) {
	log := r.log.For(account.Name)
	result = AccountResult{Name: account.Name}

	defer func() {
		if rec := recover(); rec != nil {
			result.Err = fmt.Errorf("panic: %v", rec)
			log.Errorf("processing failed: %v", result.Err)
		}
	}()

	log.Infof("======= processing account %s =======", account.Name)
	api := r.newClient(account)

	result.Profile = r.profile(ctx, api, log)
	r.pause(ctx, r.cfg.StageInterval)

	result.SignIn = r.signIn(ctx, api, log)
	r.pause(ctx, r.cfg.StageInterval)

	analysis := tasks.Analyze(r.taskList(ctx, api, log))
	result.Tasks = TaskTotals{Total: analysis.Total, Completed: analysis.Completed}
	log.Infof("tasks completed: %d/%d", analysis.Completed, analysis.Total)

	pool := r.hotPosts(ctx, api, log)
	if len(pool) < r.cfg.MinPool {
		log.Warn("not enough posts, some tasks will be skipped", slog.Int("posts", len(pool)))
	}

	exec := executor.New(api, log, executor.Config{
		LikeCap:  r.cfg.LikeCap,
		Interval: r.cfg.RequestInterval,
		Sleep:    r.sleep,
	})
	if task := analysis.Lookup(r.cfg.LikeTaskID); task != nil && len(pool) > 0 {
		result.Actions = append(result.Actions, exec.Like(ctx, task, pool)...)
	}
	if task := analysis.Lookup(r.cfg.ViewTaskID); task != nil && len(pool) > 0 {
		result.Actions = append(result.Actions, exec.View(ctx, task, pool, r.cfg.ViewStartIndex)...)
	}
	if task := analysis.Lookup(r.cfg.ShareTaskID); task != nil {
		result.Actions = append(result.Actions, exec.Share(ctx, task)...)
	}

	r.pause(ctx, r.cfg.BeforeClaims)
	updated := tasks.Analyze(r.taskList(ctx, api, log))
	report := rewards.NewClaimer(api, log, r.cfg.RequestInterval, r.sleep).ClaimAll(ctx, updated.Daily)
	result.Claims = report.Outcomes
	result.Claimed = report.Claimed

	signIn := "failed"
	if result.SignIn.Success {
		signIn = "ok"
	}
	log.Successf("done, sign-in %s, claimed %d reward(s)", signIn, result.Claimed)
	return result
}

func (r *Runner) profile(ctx context.Context, api GameAPI, log *runlog.Logger) *sdk.Profile {
	profile, err := api.Profile(ctx)
	if err != nil {
		log.Warnf("fetch profile failed: %v", err)
		return nil
	}
	log.Infof("user: %s, coins: %v", profile.NickName, profile.Coin)
	return profile
}

func (r *Runner) signIn(ctx context.Context, api GameAPI, log *runlog.Logger) SignIn {
	res, err := api.SignIn(ctx)
	if err != nil {
		log.Errorf("sign-in failed: %v", err)
		return SignIn{Message: err.Error()}
	}
	if !res.Success {
		log.Warnf("sign-in failed: %s", res.Message)
		return SignIn{Message: res.Message}
	}
	log.Successf("sign-in ok, reward: %d", res.Reward)
	return SignIn{Success: true, Reward: res.Reward, Message: res.Message}
}

func (r *Runner) taskList(ctx context.Context, api GameAPI, log *runlog.Logger) []tasks.Task {
	list, err := api.TaskList(ctx)
	if err != nil {
		log.Warnf("fetch task list failed: %v", err)
		return nil
	}
	return list
}

func (r *Runner) hotPosts(ctx context.Context, api GameAPI, log *runlog.Logger) []string {
	pool, err := api.HotPosts(ctx, r.cfg.PoolSize)
	if err != nil {
		log.Warnf("fetch hot posts failed: %v", err)
		return nil
	}
	return pool
}

func (r *Runner) pause(ctx context.Context, d time.Duration) {
	_ = r.sleep(ctx, d)
}
