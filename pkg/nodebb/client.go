// Package nodebb is a client for the NodeBB Write API (v2). All mutating
// endpoints require a master token; the acting uid is sent with each request.
package nodebb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// ClientOptions configures the NodeBB API client.
type ClientOptions struct {
	// BaseURL is the base URL for NodeBB (e.g. "http://localhost:4567").
	// Do not include /api/v2 - it is added automatically.
	BaseURL string
	// Token is the Write API master token.
	Token string
	// ActingUID is the uid the master token acts as (usually the admin, uid 1).
	ActingUID int
	// RetryMax is the maximum number of retries (default: 3).
	RetryMax int
	// Timeout is the HTTP client timeout (default: 30 seconds).
	Timeout time.Duration
	// RequestsPerSecond caps outbound request rate (default: 20).
	RequestsPerSecond int
}

// Client is the NodeBB Write API client.
type Client struct {
	baseURL    string
	token      string
	actingUID  int
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
}

// NewClient creates a new NodeBB API client.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}
	if opts.ActingUID == 0 {
		opts.ActingUID = 1
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 20
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil // Disable logging by default

	return &Client{
		baseURL:    opts.BaseURL,
		token:      opts.Token,
		actingUID:  opts.ActingUID,
		httpClient: retryClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond),
	}
}

// v2URL returns the v2 API base URL.
func (c *Client) v2URL() string {
	return c.baseURL + "/api/v2"
}

// CreateUser creates a forum user and returns its uid.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (int64, error) {
	payload, err := c.do(ctx, http.MethodPost, c.v2URL()+"/users", req)
	if err != nil {
		return 0, err
	}

	var created createUserPayload
	if err := json.Unmarshal(payload, &created); err != nil {
		return 0, fmt.Errorf("decode create user payload: %w", err)
	}

	return created.UID, nil
}

// UpdateProfile updates the profile fields of the user with the given uid.
func (c *Client) UpdateProfile(ctx context.Context, uid int64, req UpdateProfileRequest) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/users/%d", c.v2URL(), uid), req)

	return err
}

// DeleteUser deletes the user with the given uid.
func (c *Client) DeleteUser(ctx context.Context, uid int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/users/%d", c.v2URL(), uid), nil)

	return err
}

// CreateCategory creates a forum category and returns its cid.
func (c *Client) CreateCategory(ctx context.Context, req CreateCategoryRequest) (int64, error) {
	payload, err := c.do(ctx, http.MethodPost, c.v2URL()+"/categories", req)
	if err != nil {
		return 0, err
	}

	var created createCategoryPayload
	if err := json.Unmarshal(payload, &created); err != nil {
		return 0, fmt.Errorf("decode create category payload: %w", err)
	}

	return created.CID, nil
}

// DeleteCategory deletes the category with the given cid.
func (c *Client) DeleteCategory(ctx context.Context, cid int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/categories/%d", c.v2URL(), cid), nil)

	return err
}

// CreateGroup creates a forum group and returns its slug.
func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (string, error) {
	payload, err := c.do(ctx, http.MethodPost, c.v2URL()+"/groups", req)
	if err != nil {
		return "", err
	}

	var created createGroupPayload
	if err := json.Unmarshal(payload, &created); err != nil {
		return "", fmt.Errorf("decode create group payload: %w", err)
	}

	return created.Slug, nil
}

// JoinGroup adds the user with uid to the group with the given slug.
func (c *Client) JoinGroup(ctx context.Context, slug string, uid int64) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/groups/%s/membership/%d", c.v2URL(), slug, uid), nil)

	return err
}

// LeaveGroup removes the user with uid from the group with the given slug.
func (c *Client) LeaveGroup(ctx context.Context, slug string, uid int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/groups/%s/membership/%d", c.v2URL(), slug, uid), nil)

	return err
}

// do sends one authenticated request and returns the envelope payload.
// It waits on the rate limiter first, so a burst of queued sync jobs cannot
// overwhelm the forum.
func (c *Client) do(ctx context.Context, method, url string, body any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reqBody io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}

		reqBody = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-NodeBB-UID", fmt.Sprintf("%d", c.actingUID))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("nodebb returned status %d: %s", resp.StatusCode, truncate(respBody, 256))
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}

	if envelope.Code != "" && envelope.Code != "ok" {
		return nil, fmt.Errorf("nodebb returned code %q: %s", envelope.Code, envelope.Message)
	}

	return envelope.Payload, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}

	return string(b[:n]) + "..."
}
