package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PhantomStrikers/sanguoxianhua/internals/pacing"
	"github.com/PhantomStrikers/sanguoxianhua/internals/retry"
)

const (
	DefaultAPIBaseURL   = "https://api-xh.sanguosha.cn"
	DefaultForumBaseURL = "https://wxforum.sanguosha.cn"
	DefaultClientID     = "f6ec8ffe-3f4c-43e1-8d24-9021af8c6886"
	DefaultGameID       = "2"

	appID          = "wxd67100c9bcf72279"
	appVersion     = "7.2.0"
	appVersionCode = "720"
	appCode        = "2"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

type host int

const (
	hostAPI host = iota
	hostForum
)

type Client struct {
	apiBaseURL   string
	forumBaseURL string
	gameID       string
	token        string
	clientID     string
	httpClient   *http.Client
	retry        retry.Policy
	sleep        pacing.Sleeper
}

type Option func(*Client)

func WithAPIBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.apiBaseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithForumBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.forumBaseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithGameID(gameID string) Option {
	return func(c *Client) {
		if gameID != "" {
			c.gameID = gameID
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on a copy of the http client, so a
// client passed to WithHTTPClient is left untouched.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			copied := *c.httpClient
			copied.Timeout = timeout
			c.httpClient = &copied
		}
	}
}

func WithRetry(policy retry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithSleeper sets the sleeper used for the pause between the two view
// progress endpoints. Retry backoff uses the retry policy's own sleeper.
func WithSleeper(sleep pacing.Sleeper) Option {
	return func(c *Client) {
		c.sleep = pacing.Or(sleep)
	}
}

// NewClient creates a client for one account. An empty clientID uses the
// default client id.
func NewClient(token, clientID string, opts ...Option) *Client {
	if clientID == "" {
		clientID = DefaultClientID
	}
	client := &Client{
		apiBaseURL:   DefaultAPIBaseURL,
		forumBaseURL: DefaultForumBaseURL,
		gameID:       DefaultGameID,
		token:        token,
		clientID:     clientID,
		httpClient: &http.Client{
			Timeout: pacing.RequestTimeout,
		},
		retry: retry.Default(),
		sleep: pacing.Sleep,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// request sends one call through the retry policy. Transport errors and
// non-2xx statuses are retried; any decoded envelope is returned as is.
func (c *Client) request(ctx context.Context, target host, method, path string, payload any) (*Envelope, error) {
	return retry.Do(ctx, c.retry, func(ctx context.Context) (*Envelope, error) {
		return c.doRequest(ctx, target, method, path, payload)
	})
}

func (c *Client) doRequest(ctx context.Context, target host, method, path string, payload any) (*Envelope, error) {
	endpoint := c.baseURL(target) + path
	var body io.Reader
	if payload != nil {
		if method == http.MethodGet {
			query, err := toQuery(payload)
			if err != nil {
				return nil, err
			}
			if encoded := query.Encode(); encoded != "" {
				endpoint += "?" + encoded
			}
		} else {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp)
	}

	var envelope Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return &envelope, nil
}

func (c *Client) baseURL(target host) string {
	if target == hostForum {
		return c.forumBaseURL
	}
	return c.apiBaseURL
}

func (c *Client) setHeaders(req *http.Request, target host) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("AppVersion-Code", appVersionCode)
	req.Header.Set("xweb_xhr", "1")
	req.Header.Set("App-System", "weixin")
	req.Header.Set("client-Id", c.clientID)
	req.Header.Set("App-Version", appVersion)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("platform", "weixin")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Referer", "https://servicewechat.com/"+appID+"/636/page-frame.html")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	if target == hostAPI {
		req.Header.Set("App-Code", appCode)
	}
}

func responseError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func toQuery(payload any) (url.Values, error) {
	switch v := payload.(type) {
	case url.Values:
		return v, nil
	case map[string]string:
		query := url.Values{}
		for key, value := range v {
			query.Set(key, value)
		}
		return query, nil
	default:
		return nil, fmt.Errorf("unsupported query payload %T", payload)
	}
}
