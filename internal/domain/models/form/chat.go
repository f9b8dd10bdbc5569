package form

// Role is the author of a chat turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// FunctionCall is a structured mutation request returned by the model
// instead of prose.
type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// FunctionResponse carries the outcome of a dispatched call back into
// the history so the model sees what was applied.
type FunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response,omitempty"`
}

// Part is one content fragment of a turn: plain text, a function call,
// or a function response. Exactly one field is set.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// ChatTurn is one entry of the append-only conversation history. The
// full history is resent on every model call; no server-side session
// state is assumed.
type ChatTurn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// TextTurn builds a single-part text turn.
func TextTurn(role Role, text string) ChatTurn {
	return ChatTurn{Role: role, Parts: []Part{{Text: text}}}
}
