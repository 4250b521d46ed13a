package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/PhantomStrikers/sanguoxianhua/internals/pacing"
	"github.com/PhantomStrikers/sanguoxianhua/internals/tasks"
)

const (
	viewChannelID     = 2
	viewOperationType = 1
	viewOperateType   = 1
	shareOperateType  = 2
)

type Profile struct {
	NickName string  `json:"nick_name"`
	Coin     float64 `json:"coin"`
}

type SignInResult struct {
	Success bool
	Reward  int
	Message string
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	envelope, err := c.request(ctx, hostForum, http.MethodGet, "/api/profile", nil)
	if err != nil {
		return nil, err
	}
	if !envelope.In(ForumSuccess) {
		return nil, codeError(envelope)
	}
	profile := &Profile{}
	if len(envelope.Data) > 0 {
		_ = json.Unmarshal(envelope.Data, profile)
	}
	return profile, nil
}

// SignIn reports a rejected sign-in as an unsuccessful result, not an error.
func (c *Client) SignIn(ctx context.Context) (*SignInResult, error) {
	envelope, err := c.request(ctx, hostForum, http.MethodPost, "/api/user/signIn", map[string]any{})
	if err != nil {
		return nil, err
	}
	if !envelope.In(ForumSuccess) {
		return &SignInResult{Success: false, Message: envelope.Text()}, nil
	}
	var data struct {
		Num int `json:"num"`
	}
	if len(envelope.Data) > 0 {
		_ = json.Unmarshal(envelope.Data, &data)
	}
	return &SignInResult{Success: true, Reward: data.Num}, nil
}

func (c *Client) TaskList(ctx context.Context) ([]tasks.Task, error) {
	envelope, err := c.request(ctx, hostAPI, http.MethodGet, "/task/sgxh-task/taskList", nil)
	if err != nil {
		return nil, err
	}
	if !envelope.In(ListingSuccess) {
		return nil, codeError(envelope)
	}
	return tasks.Decode(envelope.Data), nil
}

// HotPosts returns up to limit post ids from the hot list.
func (c *Client) HotPosts(ctx context.Context, limit int) ([]string, error) {
	query := url.Values{}
	query.Set("gameId", c.gameID)
	envelope, err := c.request(ctx, hostAPI, http.MethodGet, "/postings/hotList", query)
	if err != nil {
		return nil, err
	}
	if !envelope.In(ListingSuccess) {
		return nil, codeError(envelope)
	}

	var posts []map[string]json.RawMessage
	if len(envelope.Data) > 0 {
		_ = json.Unmarshal(envelope.Data, &posts)
	}
	if limit >= 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		id := idString(post["id"])
		if id == "" {
			id = idString(post["postId"])
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Client) PostDetail(ctx context.Context, postID string) error {
	query := url.Values{}
	query.Set("include", "user,label")
	envelope, err := c.request(ctx, hostForum, http.MethodGet, "/api/topics/"+url.PathEscape(postID), query)
	if err != nil {
		return err
	}
	if !envelope.In(ForumSuccess) {
		return codeError(envelope)
	}
	return nil
}

func (c *Client) Upvote(ctx context.Context, postID string) (*Envelope, error) {
	return c.request(ctx, hostAPI, http.MethodPost, "/postings/sgxh/post/upvote", map[string]any{
		"postId":   idValue(postID),
		"isUpvote": 1,
	})
}

// UpdateViewProgress reports a view on both progress endpoints. Each call is
// retried on its own and a failure of the first does not skip the second.
func (c *Client) UpdateViewProgress(ctx context.Context, postID string) ProgressResult {
	result := ProgressResult{}
	result.Activity.Envelope, result.Activity.Err = c.request(ctx, hostAPI, http.MethodPost, "/user/act-user-task/updateTaskProgress", map[string]any{
		"channelId":     viewChannelID,
		"postId":        idValue(postID),
		"operationType": viewOperationType,
		"gameId":        c.gameID,
	})

	if err := c.sleep(ctx, pacing.ViewSecond); err != nil {
		result.Task.Err = err
		return result
	}

	result.Task.Envelope, result.Task.Err = c.request(ctx, hostAPI, http.MethodPost, "/task/sgxh-task/updateTaskProgress", map[string]any{
		"operateType": viewOperateType,
		"gameId":      c.gameID,
	})
	return result
}

func (c *Client) UpdateShareProgress(ctx context.Context) (*Envelope, error) {
	return c.request(ctx, hostAPI, http.MethodPost, "/task/sgxh-task/updateTaskProgress", map[string]any{
		"operateType": shareOperateType,
		"gameId":      c.gameID,
	})
}

func (c *Client) ClaimReward(ctx context.Context, claimToken string) (*Envelope, error) {
	return c.request(ctx, hostAPI, http.MethodPost, "/task/sgxh-task/getReward", map[string]any{
		"taskProgressId": idValue(claimToken),
	})
}
