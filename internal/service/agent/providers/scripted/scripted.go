// Package scripted provides a deterministic model client for local
// development and tests. Responses are served from a queue; once the
// queue is empty every call gets a fixed acknowledgement, so the rest
// of the pipeline can run without network access or an API key.
package scripted

import (
	"context"
	"sync"

	agentsvc "isma/internal/domain/services/agent"
)

const fallbackText = "Je suis en mode local: aucune action n'a été effectuée. Décrivez la question à ajouter et je la créerai."

type Client struct {
	mu    sync.Mutex
	queue []*agentsvc.Response
	err   error
}

func NewClient() *Client { return &Client{} }

func (c *Client) Name() string { return "scripted" }

// Enqueue appends responses served in order by subsequent Send calls.
func (c *Client) Enqueue(responses ...*agentsvc.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, responses...)
}

// FailWith makes every following Send return err until reset with a
// nil argument.
func (c *Client) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *Client) Send(ctx context.Context, req *agentsvc.Request) (*agentsvc.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if len(c.queue) > 0 {
		resp := c.queue[0]
		c.queue = c.queue[1:]
		return resp, nil
	}
	return &agentsvc.Response{Text: fallbackText}, nil
}
