package runner

import (
	"github.com/PhantomStrikers/sanguoxianhua/internals/accounts"
	"github.com/PhantomStrikers/sanguoxianhua/internals/conf"
	"github.com/PhantomStrikers/sanguoxianhua/internals/pacing"
	"github.com/PhantomStrikers/sanguoxianhua/internals/retry"
	"github.com/PhantomStrikers/sanguoxianhua/sdk"
)

// SDKClients returns a factory building HTTP clients from the api section of
// the config.
func SDKClients(api conf.APIConfig, sleep pacing.Sleeper) ClientFactory {
	sleep = pacing.Or(sleep)
	return func(account accounts.Account) GameAPI {
		return sdk.NewClient(account.Token, account.ClientID,
			sdk.WithAPIBaseURL(api.BaseURL),
			sdk.WithForumBaseURL(api.ForumURL),
			sdk.WithGameID(api.GameID),
			sdk.WithTimeout(api.Timeout()),
			sdk.WithRetry(retry.Policy{
				MaxRetries: api.MaxRetries,
				BaseDelay:  api.RetryBaseDelay(),
				Sleep:      sleep,
			}),
			sdk.WithSleeper(sleep),
		)
	}
}
