// Package manageclient is a thin Go SDK for the management package's
// HTTP API, giving external tools (a CLI, an AMI-bridge, a dashboard
// backend) typed access to the same operations the raw JSON endpoints
// expose, without hand-building requests.
//
// Grounded on webhook.Notifier's plain net/http.Client usage — no
// example repo in the pack ships a typed REST client library, and
// http.Client plus encoding/json is the standard, unambiguous way to
// consume a JSON API in Go.
package manageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client calls a management.Server's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }

// New creates a Client against baseURL, e.g. "http://localhost:8088".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueueSnapshot mirrors management's queueView JSON shape.
type QueueSnapshot struct {
	Name      string `json:"name"`
	Strategy  string `json:"strategy"`
	MaxLen    int    `json:"max_len"`
	Waiting   int    `json:"waiting"`
	Available int    `json:"available"`
	Stats     struct {
		Waiting     int   `json:"Waiting"`
		HoldtimeAvg int64 `json:"HoldtimeAvg"`
		TalktimeAvg int64 `json:"TalktimeAvg"`
		Completed   int64 `json:"Completed"`
		CompletedSL int64 `json:"CompletedSL"`
		Abandoned   int64 `json:"Abandoned"`
	} `json:"stats"`
	Members []MemberSnapshot `json:"members"`
}

// MemberSnapshot mirrors management's memberView JSON shape.
type MemberSnapshot struct {
	Interface string `json:"interface"`
	Penalty   int    `json:"penalty"`
	Paused    bool   `json:"paused"`
	CallInUse bool   `json:"call_in_use"`
	Calls     int64  `json:"calls"`
}

// ListQueues returns every registered queue.
func (c *Client) ListQueues(ctx context.Context) ([]QueueSnapshot, error) {
	var out []QueueSnapshot
	err := c.do(ctx, http.MethodGet, "/queues", nil, &out)
	return out, err
}

// ShowQueue returns one queue's current state.
func (c *Client) ShowQueue(ctx context.Context, name string) (QueueSnapshot, error) {
	var out QueueSnapshot
	err := c.do(ctx, http.MethodGet, "/queues/"+url.PathEscape(name), nil, &out)
	return out, err
}

// AddMember adds a member to a queue.
func (c *Client) AddMember(ctx context.Context, queue, iface, displayName string, penalty int) error {
	body := map[string]any{"interface": iface, "display_name": displayName, "penalty": penalty}
	return c.do(ctx, http.MethodPost, "/queues/"+url.PathEscape(queue)+"/members", body, nil)
}

// RemoveMember removes a member from a queue.
func (c *Client) RemoveMember(ctx context.Context, queue, iface string) error {
	path := fmt.Sprintf("/queues/%s/members/%s", url.PathEscape(queue), iface)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// SetPaused pauses or unpauses a member, recording reason in the audit
// trail.
func (c *Client) SetPaused(ctx context.Context, queue, iface string, paused bool, reason string) error {
	path := fmt.Sprintf("/queues/%s/members/%s/pause", url.PathEscape(queue), iface)
	return c.do(ctx, http.MethodPost, path, map[string]any{"paused": paused, "reason": reason}, nil)
}

// SetPenalty changes a member's penalty.
func (c *Client) SetPenalty(ctx context.Context, queue, iface string, penalty int) error {
	path := fmt.Sprintf("/queues/%s/members/%s/penalty", url.PathEscape(queue), iface)
	return c.do(ctx, http.MethodPost, path, map[string]any{"penalty": penalty}, nil)
}

// SetCallInUse marks whether a member's channel is currently in use.
func (c *Client) SetCallInUse(ctx context.Context, queue, iface string, inUse bool) error {
	path := fmt.Sprintf("/queues/%s/members/%s/callinuse", url.PathEscape(queue), iface)
	return c.do(ctx, http.MethodPost, path, map[string]any{"call_in_use": inUse}, nil)
}

// LogEvent attaches a custom audit-log line to a queue.
func (c *Client) LogEvent(ctx context.Context, queue, tag, channel, member string, metadata map[string]any) error {
	body := map[string]any{"tag": tag, "channel": channel, "member": member, "metadata": metadata}
	return c.do(ctx, http.MethodPost, "/queues/"+url.PathEscape(queue)+"/events", body, nil)
}

// Reload applies a partial Config patch to a running queue.
func (c *Client) Reload(ctx context.Context, queue string, patch map[string]any) (QueueSnapshot, error) {
	var out QueueSnapshot
	err := c.do(ctx, http.MethodPost, "/queues/"+url.PathEscape(queue)+"/reload", patch, &out)
	return out, err
}

// ResetStats zeroes a queue's running statistics.
func (c *Client) ResetStats(ctx context.Context, queue string) error {
	return c.do(ctx, http.MethodPost, "/queues/"+url.PathEscape(queue)+"/reset", nil, nil)
}

// RuleSet mirrors management's ruleView JSON shape.
type RuleSet struct {
	Name  string `json:"name"`
	Rules []struct {
		Time        int  `json:"Time"`
		MaxValue    int  `json:"MaxValue"`
		MinValue    int  `json:"MinValue"`
		MaxRelative bool `json:"MaxRelative"`
		MinRelative bool `json:"MinRelative"`
	} `json:"rules"`
}

// ShowRules returns every registered penalty RuleSet.
func (c *Client) ShowRules(ctx context.Context) ([]RuleSet, error) {
	var out []RuleSet
	err := c.do(ctx, http.MethodGet, "/rules", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("manageclient: %s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("manageclient: %s %s: %d", method, path, resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
