package rewards

import (
	"context"
	"strconv"
	"time"

	"github.com/PhantomStrikers/sanguoxianhua/internals/outcome"
	"github.com/PhantomStrikers/sanguoxianhua/internals/pacing"
	"github.com/PhantomStrikers/sanguoxianhua/internals/runlog"
	"github.com/PhantomStrikers/sanguoxianhua/internals/tasks"
	"github.com/PhantomStrikers/sanguoxianhua/sdk"
)

type API interface {
	ClaimReward(ctx context.Context, claimToken string) (*sdk.Envelope, error)
}

type Report struct {
	Outcomes []outcome.Outcome
	Claimed  int
}

type Claimer struct {
	api      API
	log      *runlog.Logger
	interval time.Duration
	sleep    pacing.Sleeper
}

func NewClaimer(api API, log *runlog.Logger, interval time.Duration, sleep pacing.Sleeper) *Claimer {
	return &Claimer{
		api:      api,
		log:      log,
		interval: interval,
		sleep:    pacing.Or(sleep),
	}
}

// ClaimAll requests the reward of every claimable task in list, one at a
// time. An already claimed reward is logged but neither counted nor treated
// as a failure.
func (c *Claimer) ClaimAll(ctx context.Context, list []tasks.Task) Report {
	report := Report{Outcomes: []outcome.Outcome{}}
	for _, task := range list {
		if !task.CanClaim() {
			continue
		}
		result := outcome.Guard(outcome.ActionClaim, strconv.Itoa(task.ID), func() outcome.Outcome {
			return c.claim(ctx, task)
		})
		report.Outcomes = append(report.Outcomes, result)
		if result.OK() {
			report.Claimed++
		}
		if err := c.sleep(ctx, c.interval); err != nil {
			break
		}
	}
	return report
}

func (c *Claimer) claim(ctx context.Context, task tasks.Task) outcome.Outcome {
	target := strconv.Itoa(task.ID)
	envelope, err := c.api.ClaimReward(ctx, task.ClaimToken)
	switch {
	case err != nil:
		c.log.Warnf("task %d reward claim failed: %v", task.ID, err)
		return outcome.Failed(outcome.ActionClaim, target, err.Error())
	case envelope.In(sdk.TaskSuccess):
		c.log.Successf("task %d reward claimed", task.ID)
		return outcome.Success(outcome.ActionClaim, target)
	case envelope != nil && envelope.Code == sdk.CodeAlreadyClaimed:
		c.log.Infof("task %d reward already claimed", task.ID)
		return outcome.Skipped(outcome.ActionClaim, target, "already claimed")
	default:
		c.log.Warnf("task %d reward claim rejected: %s", task.ID, envelope.Text())
		return outcome.Failed(outcome.ActionClaim, target, envelope.Text())
	}
}
