// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/Wikid82/warden/backend/internal/llm"
)

// ErrExhausted is returned once every scripted response has been consumed.
var ErrExhausted = errors.New("llmtest: no scripted response left")

// Client replays Responses in order and records every request. When Err is
// set every call fails with it.
type Client struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []llm.Request
}

// New returns a client that replays responses in order.
func New(responses ...string) *Client {
	return &Client{Responses: responses}
}

// Failing returns a client whose every call fails with err.
func Failing(err error) *Client {
	return &Client{Err: err}
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Requests = append(c.Requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.Err != nil {
		return "", c.Err
	}
	if len(c.Responses) == 0 {
		return "", ErrExhausted
	}
	resp := c.Responses[0]
	c.Responses = c.Responses[1:]
	return resp, nil
}

// Calls returns how many requests were made.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}
