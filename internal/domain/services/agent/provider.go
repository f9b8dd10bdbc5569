package agent

import (
	"context"

	"isma/internal/domain/models/form"
)

// Tool describes one callable function exposed to the model.
// Parameters is a JSON-schema object following the provider's
// function-declaration format.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// Request is one model round-trip. History already contains the user's
// latest message; System carries the full instruction string built for
// this turn.
type Request struct {
	System  string
	History []form.ChatTurn
	Tools   []Tool
}

// Response is what the core needs back from a provider: optional free
// text and zero or more function calls, in the order the model
// produced them.
type Response struct {
	Text          string
	FunctionCalls []form.FunctionCall
}

// ModelClient is the boundary to the language-model provider. The wire
// transport is the implementation's concern; the core only requires
// that Send eventually resolves or fails.
type ModelClient interface {
	// Name identifies the provider in logs.
	Name() string

	// Send performs one model call.
	Send(ctx context.Context, req *Request) (*Response, error)
}
