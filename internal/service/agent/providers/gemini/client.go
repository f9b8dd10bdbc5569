// Package gemini implements the model client against Google's Gemini
// API through the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"isma/internal/domain/models/form"
	agentsvc "isma/internal/domain/services/agent"
)

const defaultModel = "gemini-2.5-flash"

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Name() string { return fmt.Sprintf("gemini:%s", c.model) }

func (c *Client) Send(ctx context.Context, req *agentsvc.Request) (*agentsvc.Response, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, tool := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  schemaFromMap(tool.Parameters),
			}
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := make([]*genai.Content, 0, len(req.History))
	for _, turn := range req.History {
		contents = append(contents, contentFromTurn(turn))
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	out := &agentsvc.Response{Text: resp.Text()}
	for _, fc := range resp.FunctionCalls() {
		out.FunctionCalls = append(out.FunctionCalls, form.FunctionCall{
			Name: fc.Name,
			Args: fc.Args,
		})
	}
	return out, nil
}

func contentFromTurn(turn form.ChatTurn) *genai.Content {
	role := genai.RoleUser
	if turn.Role == form.RoleModel {
		role = genai.RoleModel
	}
	parts := make([]*genai.Part, 0, len(turn.Parts))
	for _, p := range turn.Parts {
		switch {
		case p.FunctionCall != nil:
			parts = append(parts, genai.NewPartFromFunctionCall(p.FunctionCall.Name, p.FunctionCall.Args))
		case p.FunctionResponse != nil:
			parts = append(parts, genai.NewPartFromFunctionResponse(p.FunctionResponse.Name, p.FunctionResponse.Response))
		default:
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}
	return &genai.Content{Role: role, Parts: parts}
}

// schemaFromMap converts the registry's JSON-schema maps into the
// SDK's typed schema. Only the shapes the tool declarations use are
// handled: object, array, string, boolean.
func schemaFromMap(m map[string]interface{}) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, _ := m["type"].(string); t != "" {
		switch t {
		case "object":
			s.Type = genai.TypeObject
		case "array":
			s.Type = genai.TypeArray
		case "boolean":
			s.Type = genai.TypeBoolean
		case "integer":
			s.Type = genai.TypeInteger
		case "number":
			s.Type = genai.TypeNumber
		default:
			s.Type = genai.TypeString
		}
	}
	if desc, _ := m["description"].(string); desc != "" {
		s.Description = desc
	}
	if props, ok := m["properties"].(map[string]interface{}); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if pm, ok := raw.(map[string]interface{}); ok {
				s.Properties[name] = schemaFromMap(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]interface{}); ok {
		s.Items = schemaFromMap(items)
	}
	if required, ok := m["required"].([]string); ok {
		s.Required = required
	}
	return s
}
