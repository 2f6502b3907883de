// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jonathan/resource-curator/internal/llm"
)

// ErrUnscripted is returned when no rule matches a prompt and no default is set.
var ErrUnscripted = errors.New("llmtest: no scripted response")

// Call records one request made to the fake.
type Call struct {
	Prompt string
	Tier   llm.ModelTier
	JSON   bool
}

type rule struct {
	contains string
	response string
	err      error
}

// Client answers prompts from a list of rules matched by substring, in the
// order they were added.
type Client struct {
	mu       sync.Mutex
	rules    []rule
	fallback *rule
	calls    []Call
	closed   bool
}

// New returns an empty fake; every call fails with ErrUnscripted until scripted.
func New() *Client {
	return &Client{}
}

// On answers prompts containing substr with response.
func (c *Client) On(substr, response string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, rule{contains: substr, response: response})
	return c
}

// FailOn makes prompts containing substr fail with err.
func (c *Client) FailOn(substr string, err error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, rule{contains: substr, err: err})
	return c
}

// Default sets the answer for prompts no rule matches.
func (c *Client) Default(response string, err error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = &rule{response: response, err: err}
	return c
}

// GenerateContent implements llm.Client.
func (c *Client) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.answer(ctx, prompt, tier, false)
}

// GenerateJSON implements llm.Client.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	out, err := c.answer(ctx, prompt, tier, true)
	if err != nil {
		return "", err
	}
	return llm.CleanJSONBlock(out), nil
}

// Close implements llm.Client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Calls returns a copy of every recorded request.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallsMatching counts recorded prompts containing substr.
func (c *Client) CallsMatching(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if strings.Contains(call.Prompt, substr) {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) answer(ctx context.Context, prompt string, tier llm.ModelTier, json bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Prompt: prompt, Tier: tier, JSON: json})

	if err := ctx.Err(); err != nil {
		return "", err
	}

	for _, r := range c.rules {
		if strings.Contains(prompt, r.contains) {
			return r.response, r.err
		}
	}
	if c.fallback != nil {
		return c.fallback.response, c.fallback.err
	}
	return "", ErrUnscripted
}

var _ llm.Client = (*Client)(nil)
